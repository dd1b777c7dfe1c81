package models

import (
	"errors"
	"strings"
)

// Condition is the physical state of an asset.
type Condition string

const (
	ConditionGood        Condition = "good"
	ConditionLightDamage Condition = "light_damage"
	ConditionHeavyDamage Condition = "heavy_damage"
)

// ErrInvalidCondition is returned by ParseCondition for unknown values.
var ErrInvalidCondition = errors.New("condition must be one of good, light_damage, heavy_damage")

var conditionLabels = map[Condition]string{
	ConditionGood:        "Baik",
	ConditionLightDamage: "Rusak Ringan",
	ConditionHeavyDamage: "Rusak Berat",
}

// Conditions lists every condition in declaration order (good, light, heavy).
// Reports rely on this order.
func Conditions() []Condition {
	return []Condition{ConditionGood, ConditionLightDamage, ConditionHeavyDamage}
}

// ParseCondition converts request input into a Condition. Both the canonical
// values and the Indonesian labels ("Baik", "Rusak Ringan", "Rusak Berat") are
// accepted, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Conditions() {
		if norm == string(c) || norm == strings.ToLower(conditionLabels[c]) {
			return c, nil
		}
	}
	return "", ErrInvalidCondition
}

// Valid reports whether c is one of the enumerated conditions.
func (c Condition) Valid() bool {
	_, ok := conditionLabels[c]
	return ok
}

// Label is the Indonesian display name used in exported reports.
func (c Condition) Label() string {
	if l, ok := conditionLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Condition) String() string { return string(c) }
