package core

import "strings"

// InstanceType is the first token of a DbName (§3.1).
type InstanceType string

const (
	InstanceProd InstanceType = "PROD"
	InstanceUAT  InstanceType = "UAT"
	InstanceDev  InstanceType = "DEV"
	InstanceUser InstanceType = "USER"
	InstanceTest InstanceType = "TEST"
)

// ValidInstanceTypes lists every recognized instance type.
func ValidInstanceTypes() []InstanceType {
	return []InstanceType{InstanceProd, InstanceUAT, InstanceDev, InstanceUser, InstanceTest}
}

// ValidInstanceType reports whether t is a recognized instance type.
func ValidInstanceType(t InstanceType) bool {
	for _, v := range ValidInstanceTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// DbName is a key of three tokens identifying the physical storage
// database a DataSource connects to (§3.1).
type DbName struct {
	InstanceType InstanceType
	InstanceName string
	EnvName      string
}

func (DbName) TypeName() string { return "DbName" }

func (n DbName) KeyTokens() []string {
	return []string{string(n.InstanceType), n.InstanceName, n.EnvName}
}

func (n *DbName) ParseTokens(tokens []string) error {
	if len(tokens) != 3 {
		return NewError(KindValidation, "DbName expects 3 tokens, got %d", len(tokens))
	}
	n.InstanceType = InstanceType(tokens[0])
	n.InstanceName = tokens[1]
	n.EnvName = tokens[2]
	return nil
}

// String renders n as its ';'-joined key value, the storage database name
// used once validated (§6.4). '.' is one of the characters ValidateDbName
// rejects, so the tokens cannot be joined with it the way a human-readable
// dotted name might suggest; ';' is not prohibited and matches the key
// value the original store uses as its database name.
func (n DbName) String() string {
	return Value(&n)
}

// dbNameMaxLength is the maximum length of the concatenated database name.
const dbNameMaxLength = 64

// dbNameProhibited lists characters forbidden from any DbName token or the
// concatenated name (§3.1/§6.4).
const dbNameProhibited = `/\. "$*<>:|?`

// ValidateDbName checks n's instance type, per-token character set and the
// concatenated name's length, per §6.4.
func ValidateDbName(n DbName) error {
	if !ValidInstanceType(n.InstanceType) {
		return NewError(KindValidation, "invalid instance type %q; must be one of %v", n.InstanceType, ValidInstanceTypes())
	}
	if n.InstanceName == "" {
		return NewError(KindValidation, "instance name is empty")
	}
	if n.EnvName == "" {
		return NewError(KindValidation, "env name is empty")
	}
	for _, tok := range []string{n.InstanceName, n.EnvName} {
		if strings.ContainsAny(tok, dbNameProhibited) {
			return NewError(KindValidation, "db name token %q contains a prohibited character (one of %q)", tok, dbNameProhibited)
		}
	}
	full := n.String()
	if strings.ContainsAny(full, dbNameProhibited) {
		return NewError(KindValidation, "db name %q contains a prohibited character (one of %q)", full, dbNameProhibited)
	}
	if len(full) > dbNameMaxLength {
		return NewError(KindValidation, "db name %q exceeds maximum length %d", full, dbNameMaxLength)
	}
	return nil
}

// CanDelete reports whether a database identified by n may be dropped: PROD
// and UAT instances are always refused, regardless of any caller flag
// (§6.4). The caller is still responsible for the separate read-only gate.
func (n DbName) CanDelete() bool {
	return n.InstanceType != InstanceProd && n.InstanceType != InstanceUAT
}
