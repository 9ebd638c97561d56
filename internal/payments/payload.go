package payments

import (
	"errors"
	"strconv"

	"github.com/sagaragarwal94/qr-crypto/internal/ledger"
)

// PhoneLength is the fixed width of the phone prefix in a payload.
const PhoneLength = 10

// ErrInvalidPayload reports text that is not phone digits followed by a positive amount.
var ErrInvalidPayload = errors.New("invalid transfer payload")

// Payload is the decoded content of a transfer code.
type Payload struct {
	Phone  string
	Amount int64
}

// String returns the wire form of p.
func (p Payload) String() string {
	return p.Phone + strconv.FormatInt(p.Amount, 10)
}

// EncodePayload concatenates the 10-digit phone and the decimal amount.
func EncodePayload(phone string, amount int64) (string, error) {
	if !validPhone(phone) || amount <= 0 {
		return "", ErrInvalidPayload
	}
	encoded := Payload{Phone: phone, Amount: amount}.String()
	if len(encoded) > PhoneLength+ledger.MaxAmountDigits {
		return "", ErrInvalidPayload
	}
	return encoded, nil
}

// DecodePayload splits s into the phone prefix and the amount that follows it.
func DecodePayload(s string) (Payload, error) {
	if len(s) <= PhoneLength || !validPhone(s[:PhoneLength]) {
		return Payload{}, ErrInvalidPayload
	}
	amount, err := ledger.ParseAmount(s[PhoneLength:])
	if err != nil {
		return Payload{}, ErrInvalidPayload
	}
	return Payload{Phone: s[:PhoneLength], Amount: amount}, nil
}

func validPhone(phone string) bool {
	if len(phone) != PhoneLength {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}
