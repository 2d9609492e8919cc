// Command privid-go runs one privid operation against an image file.
//
// Environment (also read from a .env file in the working directory):
//
//	PRIVID_MODELS_DIR  models cache directory
//	PRIVID_LOG_LEVEL   off, error, warn, info, debug or 0..4
//	PRIVID_LOG_FILE    rotate JSON logs into this file instead of stderr
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/prividentity/cryptonets-go/pkg/privid"
	"github.com/prividentity/cryptonets-go/pkg/privid/enginetest"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
	"github.com/prividentity/cryptonets-go/pkg/privid/settings"
)

type options struct {
	op       string
	image    string
	image2   string
	format   string
	puid     string
	fudge    float64
	settings string
	config   string
	out      string
	fake     bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}

	var o options
	flag.StringVar(&o.op, "op", "validate", "validate, age, age-stddev, enroll, predict, delete, compare, spoof, docscan or iso")
	flag.StringVar(&o.image, "image", "", "input image")
	flag.StringVar(&o.image2, "image2", "", "second image for compare")
	flag.StringVar(&o.format, "format", "rgb", "pixel format passed to the engine: rgb, bgr or rgba")
	flag.StringVar(&o.puid, "puid", "", "user id for delete")
	flag.Float64Var(&o.fudge, "fudge", 1, "compare fudge factor")
	flag.StringVar(&o.settings, "settings", "", "session settings file (yaml or json)")
	flag.StringVar(&o.config, "config", "", "operation config file (yaml or json)")
	flag.StringVar(&o.out, "out", "", "write image outputs with this path prefix (.webp, .png or .jpg suffix)")
	flag.BoolVar(&o.fake, "fake", false, "use the in-memory engine instead of libprivid_fhe")
	flag.Parse()

	log.Printf("cryptonets-go version: %s", privid.WrapperVersion())

	if err := run(context.Background(), o); err != nil {
		if errors.Is(err, privid.ErrNotBuilt) {
			fmt.Printf("library unavailable: %v\n", err)
			return
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, o options) error {
	cfg, closeLog, err := config(o)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := privid.Initialize(cfg); err != nil {
		return err
	}
	defer func() {
		if err := privid.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()
	log.Printf("engine version: %s", privid.NativeVersion())
	if dir, err := privid.ModelsCacheDirectory(); err == nil {
		log.Printf("models: %s", dir)
	}

	var payload []byte
	if o.settings != "" {
		s, err := settings.LoadSessionSettings(o.settings)
		if err != nil {
			return err
		}
		if payload, err = s.Payload(); err != nil {
			return err
		}
	}
	var callConfig []byte
	if o.config != "" {
		c, err := settings.LoadOperationConfig(o.config)
		if err != nil {
			return err
		}
		if callConfig, err = c.Payload(); err != nil {
			return err
		}
	}

	sess, err := privid.NewSession(ctx, payload)
	if err != nil {
		return err
	}
	defer sess.Close()

	return operate(ctx, sess, o, callConfig)
}

func config(o options) (privid.Config, func(), error) {
	cfg := privid.Config{ModelsDir: os.Getenv("PRIVID_MODELS_DIR"), LogLevel: privid.LevelWarn}
	if v := os.Getenv("PRIVID_LOG_LEVEL"); v != "" {
		level, err := privid.ParseLevel(v)
		if err != nil {
			return cfg, nil, err
		}
		cfg.LogLevel = level
	}
	if o.fake {
		cfg.Engine = enginetest.New()
	}

	closeLog := func() {}
	if path := os.Getenv("PRIVID_LOG_FILE"); path != "" {
		w := logging.NewFileWriter(path, logging.FileConfig{})
		z := zap.New(logging.FileCore(w, zap.NewAtomicLevelAt(cfg.LogLevel.ZapLevel())))
		cfg.Logger = logging.NewZap(z)
		closeLog = func() {
			_ = z.Sync()
			_ = w.Close()
		}
	}
	return cfg, closeLog, nil
}
