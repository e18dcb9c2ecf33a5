package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	ctx := MapResolver{
		"sponsorType":      "parent",
		"isStudent":        "true",
		"employmentStatus": "employed",
		"riskScore.level":  "high",
	}

	tests := []struct {
		name string
		expr string
		want Result
	}{
		{"empty expression is vacuously true", "", True},
		{"whitespace only is vacuously true", "   \t ", True},
		{"equality true", "sponsorType === 'parent'", True},
		{"equality false", "sponsorType === 'self'", False},
		{"inequality true", "sponsorType !== 'self'", True},
		{"inequality false", "sponsorType !== 'parent'", False},
		{"double quoted literal", `employmentStatus === "employed"`, True},
		{"bare boolean literal", "isStudent === true", True},
		{"dotted field path", "riskScore.level === 'high'", True},
		{"and both true", "sponsorType === 'parent' && isStudent === true", True},
		{"and one false", "sponsorType === 'self' && isStudent === true", False},
		{"or one true", "sponsorType === 'parent' || isStudent === false", True},
		{"or both false", "sponsorType === 'self' || isStudent === false", False},
		{"parenthesized grouping", "(sponsorType === 'self' || isStudent === true) && riskScore.level === 'high'", True},
		{"unresolved field yields unknown", "maritalStatus === 'single'", Unknown},
		{"unknown and true stays unknown", "maritalStatus === 'single' && isStudent === true", Unknown},
		{"unknown and false is false", "maritalStatus === 'single' && sponsorType === 'self'", False},
		{"unknown or true stays unknown", "maritalStatus === 'single' || isStudent === true", Unknown},
		{"true or unknown stays unknown", "sponsorType === 'parent' || maritalStatus === 'single'", Unknown},
		{"unknown or false stays unknown", "maritalStatus === 'single' || sponsorType === 'self'", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, ctx))
		})
	}
}

func TestEvaluateMalformed(t *testing.T) {
	ctx := MapResolver{"sponsorType": "self"}

	tests := []struct {
		name string
		expr string
	}{
		{"assignment instead of comparison", "sponsorType = 'self'"},
		{"loose equality", "sponsorType == 'self'"},
		{"loose inequality", "sponsorType != 'self'"},
		{"unterminated string", "sponsorType === 'self"},
		{"missing operand", "sponsorType ==="},
		{"missing closing paren", "(sponsorType === 'self'"},
		{"dangling operator", "sponsorType === 'self' &&"},
		{"single ampersand", "sponsorType === 'self' & isStudent === true"},
		{"bare field", "sponsorType"},
		{"trailing garbage", "sponsorType === 'self' isStudent"},
		{"unexpected character", "sponsorType === 'self' && @"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Unknown, Evaluate(tt.expr, ctx))
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ctx := MapResolver{"sponsorType": "parent"}
	expr := "sponsorType !== 'self' && isStudent === true"
	first := Evaluate(expr, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(expr, ctx))
	}
}

func TestEvaluateNeverPanics(t *testing.T) {
	ctx := MapResolver{}
	inputs := []string{
		"((((", "))))", "=== ===", "'", "&&", "||", "a === b === c",
		"!", "!=", "a !== ", " ( ) ", "a.b.c === ''",
	}
	for _, expr := range inputs {
		assert.NotPanics(t, func() { Evaluate(expr, ctx) })
	}
}
