package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prividentity/cryptonets-go/pkg/privid"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSessionSettingsPayload(t *testing.T) {
	s := SessionSettings{
		Collections: map[string]Collection{
			"default": {NamedURLs: map[string]string{
				"base_url": "https://api.example.com",
				"enroll":   "https://api.example.com/FACE3_4/enroll",
			}},
			"RES100": {
				NamedURLs:        map[string]string{"predict": "https://api.example.com/RES100/predict"},
				EmbeddingModelID: 14,
			},
		},
		SessionToken: "token",
	}
	p, err := s.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"collections": {
			"default": {"named_urls": {"base_url": "https://api.example.com", "enroll": "https://api.example.com/FACE3_4/enroll"}},
			"RES100": {"named_urls": {"predict": "https://api.example.com/RES100/predict"}, "embedding_model_id": 14}
		},
		"session_token": "token"
	}`, string(p))
}

func TestSessionSettingsRejectsBadCollections(t *testing.T) {
	tests := map[string]SessionSettings{
		"bad url":       {Collections: map[string]Collection{"default": {NamedURLs: map[string]string{"enroll": "not a url"}}}},
		"no urls":       {Collections: map[string]Collection{"default": {}}},
		"empty name":    {Collections: map[string]Collection{"": {NamedURLs: map[string]string{"enroll": "https://x.io"}}}},
		"negative id":   {Collections: map[string]Collection{"a": {NamedURLs: map[string]string{"e": "https://x.io"}, EmbeddingModelID: -1}}},
		"empty url key": {Collections: map[string]Collection{"a": {NamedURLs: map[string]string{"": "https://x.io"}}}},
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Payload()
			assert.ErrorIs(t, err, privid.ErrInvalidConfig)
		})
	}

	empty := SessionSettings{}
	p, err := empty.Payload()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(p))
}

func TestOperationConfigValidation(t *testing.T) {
	ok := OperationConfig{
		InputImageFormat: "bgr",
		ContextString:    "enroll",
		Neighbors:        Int(5),
		Threshold:        Float(0.8),
		ThresholdMask:    Float(-0.1),
		ImageBorder:      Float(0.05),
		ConfFastProcess:  Bool(false),
	}
	require.NoError(t, ok.Validate())

	bad := []OperationConfig{
		{InputImageFormat: "yuv"},
		{ContextString: "verify"},
		{InputType: "passport"},
		{ImagePreProc: "rotate45"},
		{Neighbors: Int(0)},
		{Neighbors: Int(101)},
		{FaceThresholdsMed: Float(2.5)},
		{BlurThresholdEnrollPred: Float(-1)},
		{ThresholdProfileEnroll: Float(-0.2)},
		{ThresholdHighVertical: Float(150)},
		{ImageBorder: Float(0.2)},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), privid.ErrInvalidConfig, "%+v", c)
	}
}

func TestOperationConfigPayload(t *testing.T) {
	c := OperationConfig{
		CollectionName:      "RES100",
		Threshold:           Float(0.7),
		ConfFastProcess:     Bool(false),
		RelaxFaceValidation: Bool(true),
		Extra: map[string]any{
			"allowed_results": []string{"valid"},
			"threshold":       0.1,
		},
	}
	p, err := c.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"collection_name": "RES100",
		"threshold": 0.7,
		"conf_fast_process": false,
		"relax_face_validation": true,
		"allowed_results": ["valid"]
	}`, string(p))

	empty := OperationConfig{}
	p, err = empty.Payload()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(p))
}

func TestLoadFromFiles(t *testing.T) {
	yamlPath := writeFile(t, "session.yaml", `
collections:
  default:
    named_urls:
      base_url: https://api.example.com
    embedding_model_id: 19
session_token: abc
`)
	s, err := LoadSessionSettings(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.SessionToken)
	assert.Equal(t, 19, s.Collections["default"].EmbeddingModelID)

	jsonPath := writeFile(t, "op.json", `{"input_image_format":"rgba","neighbors":3}`)
	c, err := LoadOperationConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "rgba", c.InputImageFormat)
	assert.Equal(t, 3, *c.Neighbors)

	extraPath := writeFile(t, "op.yml", "threshold: 0.9\nextra:\n  face_threshold_right: 0.3\n")
	c, err = LoadOperationConfig(extraPath)
	require.NoError(t, err)
	assert.Equal(t, 0.3, c.Extra["face_threshold_right"])
}

func TestLoadRejects(t *testing.T) {
	_, err := LoadSessionSettings(writeFile(t, "s.toml", "x = 1"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = LoadSessionSettings(writeFile(t, "s.json", `{"collections": {}, "typo": 1}`))
	assert.ErrorIs(t, err, privid.ErrInvalidConfig)

	_, err = LoadOperationConfig(writeFile(t, "c.yaml", "neighbors: 500\n"))
	assert.ErrorIs(t, err, privid.ErrInvalidConfig)

	_, err = LoadOperationConfig(writeFile(t, "c.yaml", "unknown_key: 1\n"))
	assert.ErrorIs(t, err, privid.ErrInvalidConfig)

	_, err = LoadOperationConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
