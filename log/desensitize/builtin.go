package desensitize

import "fmt"

// coordinateFields lists the JSON keys under which coordinates are logged
var coordinateFields = []string{
	"lat", "lng", "latitude", "longitude", "center_lat", "center_lng",
}

var (
	// TokenRule masks query tokens
	TokenRule = MustNewFieldRule("token", "token", `.*`, "******")

	// QueryTokenRule masks query tokens logged under their long name
	QueryTokenRule = MustNewFieldRule("query_token", "query_token", `.*`, "******")

	// SecretRule masks secret fields
	SecretRule = MustNewFieldRule("secret", "secret", `.*`, "******")

	// PasswordRule masks passwords, typically inside store DSNs
	PasswordRule = MustNewFieldRule("password", "password", `.*`, "******")

	// DSNPasswordRule masks credentials embedded in connection URIs
	DSNPasswordRule = MustNewContentRule("dsn_password", `(://[^:/@\s"]+:)[^@\s"]+@`, "${1}******@")
)

// CoordinateRules rounds every coordinate field to precision decimals
func CoordinateRules(precision int) []Rule {
	rules := make([]Rule, 0, len(coordinateFields))
	for _, field := range coordinateFields {
		rules = append(rules, MustNewPrecisionRule(fmt.Sprintf("coordinate_%s", field), field, precision))
	}
	return rules
}

// BuiltinRules returns the credential rules
func BuiltinRules() []Rule {
	return []Rule{
		TokenRule,
		QueryTokenRule,
		SecretRule,
		PasswordRule,
		DSNPasswordRule,
	}
}
