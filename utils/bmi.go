package utils

import "errors"

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0, errors.New("height/weight out of plausible range")
	}

	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "體重過輕"
	case bmi < 24.0:
		return "正常範圍"
	case bmi < 27.0:
		return "過重"
	case bmi < 30.0:
		return "輕度肥胖"
	case bmi < 35.0:
		return "中度肥胖"
	default:
		return "重度肥胖"
	}
}
