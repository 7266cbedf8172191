package types

import "strings"

type Action string

const (
	ActionDeposit    Action = "deposit"
	ActionWithdrawal Action = "withdrawal"
	ActionMatch      Action = "match"
	ActionFee        Action = "fee"
	ActionRebate     Action = "rebate"
	ActionConversion Action = "conversion"
	ActionUnknown    Action = "unknown"
)

var ConvertAction = map[string]Action{
	"deposit":    ActionDeposit,
	"withdrawal": ActionWithdrawal,
	"match":      ActionMatch,
	"fee":        ActionFee,
	"rebate":     ActionRebate,
	"conversion": ActionConversion,
}

// ParseAction maps a ledger "type" column to an Action. Anything it does not
// know becomes ActionUnknown so the processor can decide how to fail.
func ParseAction(s string) Action {
	if a, ok := ConvertAction[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a
	}
	return ActionUnknown
}
