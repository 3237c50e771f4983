package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldUser             = "user"
	FieldSalt             = "salt"
	FieldCanaryIV         = "canary_iv"
	FieldCanaryCiphertext = "canary_ciphertext"
)

var ErrInvalidMessage = errors.New("invalid profile message")

// ProfileRecord is the wire view of a user profile. Empty strings mean
// "not set" and are omitted from the encoded Struct.
type ProfileRecord struct {
	User             string
	Salt             string
	CanaryIV         string
	CanaryCiphertext string
}

func (p ProfileRecord) ToStruct() *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldUser: structpb.NewStringValue(p.User),
	}
	if p.Salt != "" {
		fields[FieldSalt] = structpb.NewStringValue(p.Salt)
	}
	if p.CanaryIV != "" {
		fields[FieldCanaryIV] = structpb.NewStringValue(p.CanaryIV)
	}
	if p.CanaryCiphertext != "" {
		fields[FieldCanaryCiphertext] = structpb.NewStringValue(p.CanaryCiphertext)
	}
	return &structpb.Struct{Fields: fields}
}

// ProfileRecordFromStruct decodes s. The user field is mandatory and every
// present field must be a string.
func ProfileRecordFromStruct(s *structpb.Struct) (ProfileRecord, error) {
	if s == nil {
		return ProfileRecord{}, fmt.Errorf("%w: empty message", ErrInvalidMessage)
	}

	var p ProfileRecord
	targets := map[string]*string{
		FieldUser:             &p.User,
		FieldSalt:             &p.Salt,
		FieldCanaryIV:         &p.CanaryIV,
		FieldCanaryCiphertext: &p.CanaryCiphertext,
	}
	for name, v := range s.GetFields() {
		dst, known := targets[name]
		if !known {
			continue
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return ProfileRecord{}, fmt.Errorf("%w: field %q is not a string", ErrInvalidMessage, name)
		}
		*dst = sv.StringValue
	}

	if p.User == "" {
		return ProfileRecord{}, fmt.Errorf("%w: user is required", ErrInvalidMessage)
	}
	return p, nil
}
