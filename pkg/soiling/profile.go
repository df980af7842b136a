package soiling

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// calibrationDoc is the on-disk calibration parameter record. Pointer
// fields let Load tell a missing key from a zero value.
type calibrationDoc struct {
	MinDist  *float64 `json:"min_dist"`
	MaxDist  *float64 `json:"max_dist"`
	MeanDist *float64 `json:"mean_dist"`
}

// ProfilePaths names the two calibration artifacts.
type ProfilePaths struct {
	Reference   string // flat little-endian float32 array
	Calibration string // JSON with min_dist, max_dist, mean_dist
}

// SaveProfile writes the reference vector and calibration parameters.
func SaveProfile(p *ReferenceProfile, paths ProfilePaths) error {
	ref, err := os.Create(paths.Reference)
	if err != nil {
		return fmt.Errorf("create reference artifact: %w", err)
	}
	if err := WriteReference(ref, p.Reference); err != nil {
		ref.Close()
		return err
	}
	if err := ref.Close(); err != nil {
		return fmt.Errorf("close reference artifact: %w", err)
	}

	data, err := MarshalCalibration(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(paths.Calibration, data, 0o644); err != nil {
		return fmt.Errorf("write calibration artifact: %w", err)
	}
	return nil
}

// LoadProfile reads both artifacts. Any unreadable file, malformed content
// or missing field is reported as ErrConfiguration.
func LoadProfile(paths ProfilePaths) (*ReferenceProfile, error) {
	ref, err := os.ReadFile(paths.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: reading reference artifact: %v", ErrConfiguration, err)
	}
	calib, err := os.ReadFile(paths.Calibration)
	if err != nil {
		return nil, fmt.Errorf("%w: reading calibration artifact: %v", ErrConfiguration, err)
	}
	return ParseProfile(ref, calib)
}

// ParseProfile builds a profile from in-memory artifact contents.
func ParseProfile(reference, calibration []byte) (*ReferenceProfile, error) {
	vec, err := ReadReference(bytes.NewReader(reference))
	if err != nil {
		return nil, err
	}
	p, err := UnmarshalCalibration(calibration)
	if err != nil {
		return nil, err
	}
	p.Reference = vec
	return p, nil
}

// WriteReference encodes v as little-endian float32 values.
func WriteReference(w io.Writer, v Embedding) error {
	buf := make([]float32, len(v))
	for i, x := range v {
		buf[i] = float32(x)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("write reference vector: %w", err)
	}
	return nil
}

// ReadReference decodes a little-endian float32 array.
func ReadReference(r io.Reader) (Embedding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading reference vector: %v", ErrConfiguration, err)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: reference vector has %d bytes, want a non-empty multiple of 4", ErrConfiguration, len(data))
	}
	out := make(Embedding, len(data)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, nil
}

// MarshalCalibration renders the calibration parameters as indented JSON.
func MarshalCalibration(p *ReferenceProfile) ([]byte, error) {
	doc := calibrationDoc{MinDist: &p.MinDist, MaxDist: &p.MaxDist, MeanDist: &p.MeanDist}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode calibration: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalCalibration parses calibration parameters; the reference vector
// of the returned profile is empty.
func UnmarshalCalibration(data []byte) (*ReferenceProfile, error) {
	var doc calibrationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing calibration: %v", ErrConfiguration, err)
	}
	missing := ""
	switch {
	case doc.MinDist == nil:
		missing = "min_dist"
	case doc.MaxDist == nil:
		missing = "max_dist"
	case doc.MeanDist == nil:
		missing = "mean_dist"
	}
	if missing != "" {
		return nil, fmt.Errorf("%w: calibration is missing %q", ErrConfiguration, missing)
	}
	return &ReferenceProfile{MinDist: *doc.MinDist, MaxDist: *doc.MaxDist, MeanDist: *doc.MeanDist}, nil
}
