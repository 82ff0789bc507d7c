package camera

import (
	"math"
	"testing"

	"github.com/mvermeulen/analemma/pkg/errors"
)

func TestFromFOV(t *testing.T) {
	cal, err := FromFOV(4000, 3000, 40, 30)
	if err != nil {
		t.Fatalf("FromFOV: %v", err)
	}
	if cal.PxPerDegAz != 100 {
		t.Errorf("PxPerDegAz = %v, want 100", cal.PxPerDegAz)
	}
	if cal.PxPerDegAlt != 100 {
		t.Errorf("PxPerDegAlt = %v, want 100", cal.PxPerDegAlt)
	}
	if !cal.Valid() {
		t.Error("Valid() = false, want true")
	}
}

func TestFromFOVRejectsBadInputs(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		hf, vf float64
	}{
		{"zero width", 0, 3000, 40, 30},
		{"zero hfov", 4000, 3000, 0, 30},
		{"negative vfov", 4000, 3000, 40, -5},
		{"hfov too wide", 4000, 3000, 400, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFOV(tt.w, tt.h, tt.hf, tt.vf)
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("err = %v, want CONFIGURATION", err)
			}
		})
	}
}

func TestFOV(t *testing.T) {
	// 50mm lens on a full-frame sensor: the classic ~39.6° x 27.0°.
	hfov := FOV(DefaultSensorWidthMM, 50)
	if math.Abs(hfov-39.6) > 0.1 {
		t.Errorf("horizontal FOV = %v, want ≈ 39.6", hfov)
	}
	vfov := FOV(DefaultSensorHeightMM, 50)
	if math.Abs(vfov-27.0) > 0.1 {
		t.Errorf("vertical FOV = %v, want ≈ 27.0", vfov)
	}
}

func TestFromFocalLength(t *testing.T) {
	cal, err := FromFocalLength(6000, 4000, 50, DefaultSensorWidthMM, DefaultSensorHeightMM)
	if err != nil {
		t.Fatalf("FromFocalLength: %v", err)
	}

	wantAz := 6000 / FOV(DefaultSensorWidthMM, 50)
	if math.Abs(cal.PxPerDegAz-wantAz) > 1e-9 {
		t.Errorf("PxPerDegAz = %v, want %v", cal.PxPerDegAz, wantAz)
	}

	// Longer lens, narrower FOV, more pixels per degree.
	tele, err := FromFocalLength(6000, 4000, 200, DefaultSensorWidthMM, DefaultSensorHeightMM)
	if err != nil {
		t.Fatalf("FromFocalLength(200mm): %v", err)
	}
	if tele.PxPerDegAz <= cal.PxPerDegAz {
		t.Errorf("200mm PxPerDegAz = %v, want > 50mm %v", tele.PxPerDegAz, cal.PxPerDegAz)
	}
}

func TestFromFocalLengthRejectsBadOptics(t *testing.T) {
	if _, err := FromFocalLength(6000, 4000, 0, 36, 24); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("zero focal length: err = %v, want CONFIGURATION", err)
	}
	if _, err := FromFocalLength(6000, 4000, 50, -36, 24); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("negative sensor width: err = %v, want CONFIGURATION", err)
	}
}

func TestZeroCalibrationInvalid(t *testing.T) {
	var cal Calibration
	if cal.Valid() {
		t.Error("zero Calibration reported valid")
	}
}
