package validation

import (
	"errors"
	"testing"
)

type signup struct {
	Username      string `form:"username" validate:"required,min=1,max=64"`
	Password      string `form:"password" validate:"required"`
	PasswordAgain string `form:"password_again" validate:"required,eqfield=Password"`
	Phone         string `form:"phone_number" validate:"required,len=10,digits"`
}

func TestStructAcceptsValidInput(t *testing.T) {
	v := MustNew()
	err := v.Struct(signup{Username: "alice", Password: "pw1", PasswordAgain: "pw1", Phone: "5551234567"})
	if err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestStructReportsFieldsByFormName(t *testing.T) {
	v := MustNew()
	err := v.Struct(signup{Username: "", Password: "pw1", PasswordAgain: "pw2", Phone: "55512abc67"})

	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %T %v", err, err)
	}
	for _, field := range []string{"username", "password_again", "phone_number"} {
		if _, ok := verrs[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, verrs)
		}
	}
	if _, ok := verrs["password"]; ok {
		t.Fatalf("password itself is valid: %v", verrs)
	}
	if verrs["phone_number"] != "phone_number must contain only digits" {
		t.Fatalf("unexpected phone message: %q", verrs["phone_number"])
	}
}

func TestErrorsMessageIsStable(t *testing.T) {
	e := Errors{"b": "second", "a": "first"}
	if e.Error() != "a: first; b: second" {
		t.Fatalf("unexpected message %q", e.Error())
	}
}
