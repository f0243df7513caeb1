package forms

import (
	"errors"
	"testing"
)

func validWithdraw() Withdraw {
	return Withdraw{
		Amount:        "50",
		ChainID:       1,
		WalletAddress: "TXYZabc1234567890abcdefgh",
		OTP:           "123456",
	}
}

func TestWithdrawMinimum(t *testing.T) {
	form := validWithdraw()
	if err := Validate(form); err != nil {
		t.Fatalf("expected 50 to pass, got %v", err)
	}

	form.Amount = "10"
	err := Validate(form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["amount"] != "must be at least $50" {
		t.Fatalf("unexpected amount message %q", verr.Fields["amount"])
	}
}

func TestWithdrawRejectsNonNumericAmount(t *testing.T) {
	form := validWithdraw()
	form.Amount = "fifty"
	err := Validate(form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["amount"] != "must be a positive amount" {
		t.Fatalf("unexpected amount message %q", verr.Fields["amount"])
	}
}

func TestSignupPasswordConfirmation(t *testing.T) {
	form := Signup{
		Name:                 "Ada",
		Email:                "ada@example.com",
		Password:             "password123",
		PasswordConfirmation: "password124",
	}
	err := Validate(form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["password_confirmation"]; !ok {
		t.Fatalf("expected password_confirmation error, got %v", verr.Fields)
	}

	form.PasswordConfirmation = form.Password
	form.ReferralCode = "ABC123"
	if err := Validate(form); err != nil {
		t.Fatalf("expected valid signup, got %v", err)
	}

	form.ReferralCode = "ABC-123"
	if err := Validate(form); err == nil {
		t.Fatal("expected referral code with dash to fail")
	}
}

func TestOTPLength(t *testing.T) {
	for _, code := range []string{"12345", "1234567", "12345a"} {
		if err := Validate(OTP{Code: code}); err == nil {
			t.Fatalf("expected %q to fail", code)
		}
	}
	if err := Validate(OTP{Code: "000123"}); err != nil {
		t.Fatalf("expected six digits to pass, got %v", err)
	}
}

func TestLoginErrorText(t *testing.T) {
	err := Validate(Login{Email: "not-an-email", Password: "123"})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "email must be a valid email\npassword must be at least 6 characters long"
	if err.Error() != want {
		t.Fatalf("unexpected message:\n%s", err.Error())
	}
}

func TestProfilePhone(t *testing.T) {
	if err := Validate(Profile{Name: "Ada", Phone: "+2348012345678"}); err != nil {
		t.Fatalf("expected valid phone, got %v", err)
	}
	if err := Validate(Profile{Name: "Ada", Phone: "0801"}); err == nil {
		t.Fatal("expected invalid phone to fail")
	}
	if err := Validate(Profile{Name: "Ada"}); err != nil {
		t.Fatalf("expected empty phone to pass, got %v", err)
	}
}

func TestDepositAmountMustBePositive(t *testing.T) {
	if err := Validate(Deposit{Amount: "0", ChainID: 2}); err == nil {
		t.Fatal("expected zero deposit to fail")
	}
	if err := Validate(Deposit{Amount: "0.01", ChainID: 2}); err != nil {
		t.Fatalf("expected small deposit to pass, got %v", err)
	}
}
