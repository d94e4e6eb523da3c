package logic

// DigitDrive describes the output side effect of one display step: blank the
// Off digit, then show Digit on the On digit.
type DigitDrive struct {
	Off   Position
	On    Position
	Digit int
}

// NextDisplay evaluates the display machine once. The bootstrap step from
// DisplayInit drives nothing; every later step drives exactly one digit.
//
// Temperatures of 100 and above lose their hundreds place. Negative readings
// are shown by magnitude.
func NextDisplay(state DisplayState, tempF int) (DisplayState, *DigitDrive) {
	switch state {
	case DisplayShowOnes:
		return DisplayShowTens, &DigitDrive{Off: Tens, On: Ones, Digit: OnesDigit(tempF)}
	case DisplayShowTens:
		return DisplayShowOnes, &DigitDrive{Off: Ones, On: Tens, Digit: TensDigit(tempF)}
	default:
		return DisplayShowOnes, nil
	}
}

// OnesDigit returns the ones place of t.
func OnesDigit(t int) int {
	return abs(t) % 10
}

// TensDigit returns the tens place of t.
func TensDigit(t int) int {
	return (abs(t) / 10) % 10
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
