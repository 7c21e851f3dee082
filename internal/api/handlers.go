package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpathlegal/verdict-engine/internal/models"
)

// FromProtoSituation maps the gRPC request document into the loosely-typed
// record the normalizer accepts.
func FromProtoSituation(req *structpb.Struct) (map[string]any, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	return req.AsMap(), nil
}

// ToProtoVerdict converts a verdict into its gRPC document form. Field names
// match the JSON rendering.
func ToProtoVerdict(v models.Verdict) (*structpb.Struct, error) {
	return toStruct(v)
}

// FromProtoVerdict decodes a verdict document produced by ToProtoVerdict.
func FromProtoVerdict(s *structpb.Struct) (models.Verdict, error) {
	var v models.Verdict
	if s == nil {
		return v, fmt.Errorf("verdict is nil")
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return v, fmt.Errorf("encode verdict document: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode verdict document: %w", err)
	}
	return v, nil
}

// JurisdictionsResponse is the body of the jurisdiction listing on both
// transports.
type JurisdictionsResponse struct {
	Jurisdictions []models.JurisdictionSummary `json:"jurisdictions"`
}

// ToProtoJurisdictions converts a jurisdiction listing into its gRPC document form.
func ToProtoJurisdictions(list []models.JurisdictionSummary) (*structpb.Struct, error) {
	if list == nil {
		list = []models.JurisdictionSummary{}
	}
	return toStruct(JurisdictionsResponse{Jurisdictions: list})
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return s, nil
}
