package patch

import (
	"testing"

	apperrors "github.com/opsledger/catalog/pkg/errors"
)

type doc struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	URL    *string `json:"url"`
}

func validStatus(d doc) error {
	if d.Status != "Active" && d.Status != "Deprecated" {
		return apperrors.Newf(apperrors.CodeInvalid, "bad status %q", d.Status)
	}
	return nil
}

func TestApplyReplace(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[{"op": "replace", "path": "/status", "value": "Deprecated"}]`)

	res, err := Apply(current, ops, validStatus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Modified {
		t.Fatal("expected document to be modified")
	}
	if res.Snapshot.Status != "Deprecated" || res.Snapshot.Name != "foo" {
		t.Fatalf("unexpected snapshot: %+v", res.Snapshot)
	}
}

func TestApplyNoOpIsNotModified(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[{"op": "replace", "path": "/status", "value": "Active"}]`)

	res, err := Apply(current, ops, validStatus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Modified {
		t.Fatal("replacing a field with its current value must not count as modified")
	}
}

func TestApplyFailedTestOp(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[
		{"op": "test", "path": "/status", "value": "Deprecated"},
		{"op": "replace", "path": "/name", "value": "bar"}
	]`)

	_, err := Apply(current, ops, validStatus)
	if !apperrors.IsCode(err, apperrors.CodeInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestApplyBadPath(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[{"op": "replace", "path": "/nope/deep", "value": 1}]`)

	_, err := Apply(current, ops, validStatus)
	if !apperrors.IsCode(err, apperrors.CodeInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestApplyUnknownFieldRejected(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[{"op": "add", "path": "/extra", "value": true}]`)

	_, err := Apply(current, ops, validStatus)
	if !apperrors.IsCode(err, apperrors.CodeInvalid) {
		t.Fatalf("expected invalid error for unknown field, got %v", err)
	}
}

func TestApplyValidationFailure(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	ops := []byte(`[{"op": "replace", "path": "/status", "value": "Bogus"}]`)

	_, err := Apply(current, ops, validStatus)
	if !apperrors.IsCode(err, apperrors.CodeInvalid) {
		t.Fatalf("expected invalid error for failed validation, got %v", err)
	}
}

func TestApplyMalformedPatchDocument(t *testing.T) {
	current := doc{Name: "foo", Status: "Active"}
	for _, ops := range [][]byte{
		[]byte(`{"op": "replace"}`),
		[]byte(`not json`),
		[]byte(`[{"op": "teleport", "path": "/name"}]`),
	} {
		if _, err := Apply(current, ops, validStatus); !apperrors.IsCode(err, apperrors.CodeInvalid) {
			t.Fatalf("expected invalid error for %s, got %v", ops, err)
		}
	}
}

func TestApplyRemoveNullableField(t *testing.T) {
	u := "https://example.com"
	current := doc{Name: "foo", Status: "Active", URL: &u}
	ops := []byte(`[{"op": "remove", "path": "/url"}]`)

	res, err := Apply(current, ops, validStatus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Modified {
		t.Fatal("expected modified")
	}
	if res.Snapshot.URL != nil {
		t.Fatalf("expected url cleared, got %v", *res.Snapshot.URL)
	}
}
