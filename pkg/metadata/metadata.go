// Package metadata reads observation sidecar files that describe a
// photograph: where and when it was taken and what camera took it. Two
// formats are supported, a TOML file and the legacy KEY=VALUE text format
// that older capture scripts produced.
package metadata

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// timeLayout is the capture timestamp format used by both sidecar formats.
const timeLayout = "2006-01-02 15:04:05"

// Observation describes one photograph and the circumstances of its capture.
type Observation struct {
	// ImageFile is the photograph's filename relative to the sidecar.
	// Empty means the image should be discovered next to the sidecar.
	ImageFile string `toml:"image_file"`

	// Capture time in the observer's local civil time.
	Capture time.Time `toml:"-"`

	// Latitude of the observer in degrees, north positive.
	Latitude float64 `toml:"latitude"`

	// Longitude of the observer in degrees, east positive.
	Longitude float64 `toml:"longitude"`

	// FocalLengthMM of the lens.
	FocalLengthMM float64 `toml:"focal_length_mm"`

	// SensorWidthMM of the camera sensor.
	SensorWidthMM float64 `toml:"sensor_width_mm"`

	// SensorHeightMM of the camera sensor.
	SensorHeightMM float64 `toml:"sensor_height_mm"`

	// AltitudeM is the observer's elevation in meters, when recorded.
	AltitudeM float64 `toml:"altitude_m"`

	// CameraMake and CameraModel, when recorded.
	CameraMake  string `toml:"camera_make"`
	CameraModel string `toml:"camera_model"`

	// LocationName is a human-readable place name, when recorded.
	LocationName string `toml:"location_name"`
}

// tomlObservation carries the capture time as a string so the sidecar can
// use the same layout as the legacy format.
type tomlObservation struct {
	Observation
	Datetime string `toml:"datetime"`
}

// Load reads a sidecar file, picking the format from the extension: .toml is
// TOML, anything else the legacy KEY=VALUE text.
func Load(path string) (Observation, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return LoadTOML(path)
	}
	return LoadLegacy(path)
}

// LoadTOML reads a TOML sidecar.
func LoadTOML(path string) (Observation, error) {
	var doc tomlObservation
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return Observation{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "metadata file not found")
		}
		return Observation{}, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "failed to parse TOML metadata")
	}
	obs := doc.Observation
	if doc.Datetime != "" {
		t, err := time.ParseInLocation(timeLayout, doc.Datetime, time.Local)
		if err != nil {
			return Observation{}, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "invalid datetime in metadata")
		}
		obs.Capture = t
	}
	return obs, nil
}

// LoadLegacy reads the KEY=VALUE text format. Lines starting with # are
// comments, keys are case-insensitive, and parsing stops at the reference
// data separator so hand-written notes below it are ignored.
func LoadLegacy(path string) (Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Observation{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "metadata file not found")
		}
		return Observation{}, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "failed to open metadata file")
	}
	defer f.Close()

	var obs Observation
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.Contains(line, "--- REFERENCE DATA") || strings.Contains(line, "--- ADDITIONAL METADATA") {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := obs.set(key, value); err != nil {
			return Observation{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return Observation{}, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "failed to read metadata file")
	}
	return obs, nil
}

func (o *Observation) set(key, value string) error {
	switch key {
	case "image_file":
		o.ImageFile = value
	case "camera_make":
		o.CameraMake = value
	case "camera_model":
		o.CameraModel = value
	case "location_name":
		o.LocationName = value
	case "datetime":
		t, err := time.ParseInLocation(timeLayout, value, time.Local)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "invalid datetime %q", value)
		}
		o.Capture = t
	case "latitude", "longitude", "altitude_m", "focal_length_mm", "sensor_width_mm", "sensor_height_mm":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "invalid numeric value for %s", key)
		}
		switch key {
		case "latitude":
			o.Latitude = v
		case "longitude":
			o.Longitude = v
		case "altitude_m":
			o.AltitudeM = v
		case "focal_length_mm":
			o.FocalLengthMM = v
		case "sensor_width_mm":
			o.SensorWidthMM = v
		case "sensor_height_mm":
			o.SensorHeightMM = v
		}
	}
	// Unknown keys are ignored so newer sidecars stay readable.
	return nil
}

// Validate checks that the fields needed for projection are present.
func (o Observation) Validate() error {
	switch {
	case o.Capture.IsZero():
		return errors.New(errors.ErrCodeInvalidMetadata, "metadata is missing datetime")
	case o.Latitude < -90 || o.Latitude > 90:
		return errors.New(errors.ErrCodeInvalidMetadata, "latitude out of range [-90, 90]")
	case o.Longitude < -180 || o.Longitude > 180:
		return errors.New(errors.ErrCodeInvalidMetadata, "longitude out of range [-180, 180]")
	}
	return nil
}

// imageExtensions recognized by ResolveImage, lowercase.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true, ".tiff": true, ".tif": true,
}

// ResolveImage returns the photograph's path. When the sidecar names an
// image file that name wins; otherwise the sidecar's directory is searched
// for exactly one image, and multiple candidates pick the lexicographically
// first.
func (o Observation) ResolveImage(sidecarPath string) (string, error) {
	dir := filepath.Dir(sidecarPath)
	if o.ImageFile != "" {
		return filepath.Join(dir, o.ImageFile), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot search for image next to metadata")
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", errors.New(errors.ErrCodeFileNotFound, "no image file found next to metadata")
	}
	// os.ReadDir returns entries sorted by name.
	return filepath.Join(dir, candidates[0]), nil
}
