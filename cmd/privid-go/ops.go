package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prividentity/cryptonets-go/pkg/privid"
	"github.com/prividentity/cryptonets-go/pkg/privid/imageio"
)

func operate(ctx context.Context, sess *privid.Session, o options, config []byte) error {
	format := privid.ImageFormat(o.format)

	if o.op == "delete" {
		if o.puid == "" {
			return errors.New("delete needs -puid")
		}
		res, err := sess.UserDelete(ctx, o.puid, config)
		return report(res, err)
	}

	if o.image == "" {
		return fmt.Errorf("%s needs -image", o.op)
	}
	img, err := imageio.Load(o.image, format)
	if err != nil {
		return err
	}

	switch o.op {
	case "validate":
		return report(sess.Validate(ctx, img, config))
	case "age":
		return report(sess.EstimateAge(ctx, img, config))
	case "age-stddev":
		return report(sess.EstimateAgeWithStdDev(ctx, img, config))
	case "enroll":
		return report(sess.EnrollOneFA(ctx, img, config))
	case "predict":
		return report(sess.PredictOneFA(ctx, img, config))
	case "spoof":
		return report(sess.AntiSpoofing(ctx, img, config))
	case "compare":
		if o.image2 == "" {
			return errors.New("compare needs -image2")
		}
		other, err := imageio.Load(o.image2, format)
		if err != nil {
			return err
		}
		return report(sess.FaceCompare(ctx, img, other, float32(o.fudge), config))
	case "iso":
		res, err := sess.FaceISO(ctx, img, config)
		if err != nil {
			return err
		}
		defer res.Release()
		show(&res.Result)
		return save(o.out, "iso", res.Image, format)
	case "docscan":
		res, err := sess.DocScanFace(ctx, img, config)
		if err != nil {
			return err
		}
		defer res.Release()
		show(&res.Result)
		if err := save(o.out, "face", res.Face, format); err != nil {
			return err
		}
		// The document crop keeps the input aspect, so it is only written
		// when it matches the input size.
		if res.Document.Len() == len(img.Pixels) {
			return saveRaw(o.out, "document", res.Document.Copy(), img.Width, img.Height, format)
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", o.op)
}

// report prints the result text and releases it.
func report(res *privid.Result, err error) error {
	if err != nil {
		return err
	}
	show(res)
	return res.Release()
}

// show prints the result text. Engine failures are printed, not returned.
func show(res *privid.Result) {
	fmt.Println(res.Text.String())
	if ferr := res.Err(); ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
	}
}

// save writes a square crop held in b.
func save(prefix, name string, b *privid.BinaryBuffer, format privid.ImageFormat) error {
	if prefix == "" || b == nil || b.Len() == 0 {
		return nil
	}
	side := imageio.SquareSide(b.Len(), format)
	if side == 0 {
		return fmt.Errorf("%s output of %d bytes is not a square %s image", name, b.Len(), format)
	}
	return saveRaw(prefix, name, b.Copy(), side, side, format)
}

func saveRaw(prefix, name string, px []byte, w, h int, format privid.ImageFormat) error {
	if prefix == "" {
		return nil
	}
	defer privid.ZeroizeBytes(px)
	img, err := imageio.ToImage(px, w, h, format)
	if err != nil {
		return err
	}
	ext := filepath.Ext(prefix)
	if ext == "" {
		ext = ".webp"
	}
	path := strings.TrimSuffix(prefix, filepath.Ext(prefix)) + "-" + name + ext
	if err := imageio.Save(path, img, 90); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}
