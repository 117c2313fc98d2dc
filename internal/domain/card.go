package domain

import "strconv"

const (
	cardLength   = 16
	cardRangeMin = 5000 // exclusive
	cardRangeMax = 7000 // exclusive
)

// ValidateCard checks a card number by structural rule only:
// exactly 16 digits, and the trailing 4 digits strictly between 5000 and 7000.
func ValidateCard(cardNo int64) error {
	if cardNo < 0 {
		return ErrInvalidCard
	}
	digits := strconv.FormatInt(cardNo, 10)
	if len(digits) != cardLength {
		return ErrInvalidCard
	}

	last4, err := strconv.Atoi(digits[len(digits)-4:])
	if err != nil {
		return ErrInvalidCard
	}
	if last4 <= cardRangeMin || last4 >= cardRangeMax {
		return ErrInvalidCard
	}
	return nil
}

// CardLast4 returns the trailing four digits for receipts and logs.
func CardLast4(cardNo int64) string {
	digits := strconv.FormatInt(cardNo, 10)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
