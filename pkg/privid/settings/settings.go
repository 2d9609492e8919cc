// Package settings provides typed session settings and operation
// configuration for privid, validated before they are rendered to the JSON
// payloads the engine consumes.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/prividentity/cryptonets-go/pkg/privid"
)

// ErrFormat reports a settings file with an unsupported extension.
var ErrFormat = errors.New("settings: unsupported file format")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Collection routes one named collection of enrollments.
type Collection struct {
	NamedURLs        map[string]string `json:"named_urls" yaml:"named_urls" validate:"required,dive,keys,required,endkeys,url"`
	EmbeddingModelID int               `json:"embedding_model_id,omitempty" yaml:"embedding_model_id" validate:"gte=0"`
}

// SessionSettings is the payload a session is created from.
type SessionSettings struct {
	Collections  map[string]Collection `json:"collections,omitempty" yaml:"collections" validate:"dive,keys,required,endkeys"`
	SessionToken string                `json:"session_token,omitempty" yaml:"session_token"`
}

// Validate checks the settings.
func (s *SessionSettings) Validate() error {
	return check(s)
}

// Payload validates s and renders it for privid.NewSession.
func (s *SessionSettings) Payload() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// LoadSessionSettings reads settings from a .yaml, .yml or .json file.
// Unknown keys are rejected.
func LoadSessionSettings(path string) (*SessionSettings, error) {
	var s SessionSettings
	if err := load(path, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("settings: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(v)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(v)
	default:
		return fmt.Errorf("%w: %s", ErrFormat, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", privid.ErrInvalidConfig, path, err)
	}
	return nil
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", privid.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", privid.ErrInvalidConfig, strings.Join(msgs, "; "))
}
