package settings

import (
	"encoding/json"
	"fmt"

	"github.com/prividentity/cryptonets-go/pkg/privid"
)

// OperationConfig is the configuration of one operation, or the standing
// configuration of a session. Unset fields are left to the engine.
type OperationConfig struct {
	InputImageFormat string `json:"input_image_format,omitempty" yaml:"input_image_format" validate:"omitempty,oneof=rgb rgba bgr"`
	ContextString    string `json:"context_string,omitempty" yaml:"context_string" validate:"omitempty,oneof=enroll predict"`
	InputType        string `json:"input_type,omitempty" yaml:"input_type" validate:"omitempty,oneof=face document-id document-barcode"`
	ImagePreProc     string `json:"image_pre_proc,omitempty" yaml:"image_pre_proc" validate:"omitempty,oneof=zoom_pan rotate90 rotate180 rotate270 blur fliplr none"`
	CollectionName   string `json:"collection_name,omitempty" yaml:"collection_name"`
	Identifier       string `json:"identifier,omitempty" yaml:"identifier"`
	Neighbors        *int   `json:"neighbors,omitempty" yaml:"neighbors" validate:"omitempty,gte=1,lte=100"`

	Threshold               *float64 `json:"threshold,omitempty" yaml:"threshold" validate:"omitempty,gte=0,lte=2"`
	FaceThresholdsRemBadEmb *float64 `json:"face_thresholds_rem_bad_emb,omitempty" yaml:"face_thresholds_rem_bad_emb" validate:"omitempty,gte=0,lte=2"`
	FaceThresholdsMed       *float64 `json:"face_thresholds_med,omitempty" yaml:"face_thresholds_med" validate:"omitempty,gte=0,lte=2"`
	BlurThresholdDocLevel1  *float64 `json:"blur_threshold_doc_level_1,omitempty" yaml:"blur_threshold_doc_level_1" validate:"omitempty,gte=0,lte=10000"`
	BlurThresholdDocLevel2  *float64 `json:"blur_threshold_doc_level_2,omitempty" yaml:"blur_threshold_doc_level_2" validate:"omitempty,gte=0,lte=10000"`
	BlurThresholdEnrollPred *float64 `json:"blur_threshold_enroll_pred,omitempty" yaml:"blur_threshold_enroll_pred" validate:"omitempty,gte=0,lte=10000"`
	ThresholdProfileEnroll  *float64 `json:"threshold_profile_enroll,omitempty" yaml:"threshold_profile_enroll" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdProfilePredict *float64 `json:"threshold_profile_predict,omitempty" yaml:"threshold_profile_predict" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdVerticalEnroll *float64 `json:"threshold_vertical_enroll,omitempty" yaml:"threshold_vertical_enroll" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdVerticalPred   *float64 `json:"threshold_vertical_predict,omitempty" yaml:"threshold_vertical_predict" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdUserRight      *float64 `json:"threshold_user_right,omitempty" yaml:"threshold_user_right" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdUserLeft       *float64 `json:"threshold_user_left,omitempty" yaml:"threshold_user_left" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdUserTooFar     *float64 `json:"threshold_user_too_far,omitempty" yaml:"threshold_user_too_far" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdUserTooClose   *float64 `json:"threshold_user_too_close,omitempty" yaml:"threshold_user_too_close" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdGlass          *float64 `json:"threshold_glass,omitempty" yaml:"threshold_glass" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdMask           *float64 `json:"threshold_mask,omitempty" yaml:"threshold_mask" validate:"omitempty,gte=-0.1,lte=2"`
	ConfScoreThrEnroll      *float64 `json:"conf_score_thr_enroll,omitempty" yaml:"conf_score_thr_enroll" validate:"omitempty,gte=-0.1,lte=2"`
	ConfScoreThrPredict     *float64 `json:"conf_score_thr_predict,omitempty" yaml:"conf_score_thr_predict" validate:"omitempty,gte=-0.1,lte=2"`
	ThresholdHighVertical   *float64 `json:"threshold_high_vertical_enroll,omitempty" yaml:"threshold_high_vertical_enroll" validate:"omitempty,gte=-100,lte=100"`
	ImageBorder             *float64 `json:"image_border,omitempty" yaml:"image_border" validate:"omitempty,gte=0,lte=0.1"`

	ConfFastProcess                *bool `json:"conf_fast_process,omitempty" yaml:"conf_fast_process"`
	DocumentFaceCheckValidity      *bool `json:"document_face_check_validity,omitempty" yaml:"document_face_check_validity"`
	DocumentCheckValidity          *bool `json:"document_check_validity,omitempty" yaml:"document_check_validity"`
	DocumentFacePredict            *bool `json:"document_face_predict,omitempty" yaml:"document_face_predict"`
	EnableDocPerspectiveCorrection *bool `json:"enable_doc_perspective_correction,omitempty" yaml:"enable_doc_perspective_correction"`
	EnrollAllowEyeGlass            *bool `json:"enroll_allow_eye_glass,omitempty" yaml:"enroll_allow_eye_glass"`
	SendOriginalImages             *bool `json:"send_original_images,omitempty" yaml:"send_original_images"`
	DocScanFaceDocValidationsOff   *bool `json:"doc_scan_face_doc_validations_off,omitempty" yaml:"doc_scan_face_doc_validations_off"`
	EstimateAgeFaceValidationsOff  *bool `json:"estimate_age_face_validations_off,omitempty" yaml:"estimate_age_face_validations_off"`
	RelaxFaceValidation            *bool `json:"relax_face_validation,omitempty" yaml:"relax_face_validation"`
	DocumentAutoRotation           *bool `json:"document_auto_rotation,omitempty" yaml:"document_auto_rotation"`

	// Extra carries free-form parameters such as face_threshold_right or
	// allowed_results. Typed fields win over Extra on conflicts. Only YAML
	// files can set it.
	Extra map[string]any `json:"-" yaml:"extra"`
}

// Validate checks every set field against its allowed range.
func (c *OperationConfig) Validate() error {
	return check(c)
}

// Payload validates c and renders it as a per-call or session payload.
func (c *OperationConfig) Payload() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	typed, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return typed, nil
	}
	merged := make(map[string]any, len(c.Extra))
	for k, v := range c.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: extra: %v", privid.ErrInvalidConfig, err)
	}
	return out, nil
}

// LoadOperationConfig reads a configuration from a .yaml, .yml or .json file.
func LoadOperationConfig(path string) (*OperationConfig, error) {
	var c OperationConfig
	if err := load(path, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Bool returns a pointer to v, for the optional fields.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
