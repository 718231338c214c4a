package economy

import "errors"

// Errors reserved for caller mistakes. Domain-expected absence (an unknown
// item, an empty inventory) is reported through result values, never through
// these.
var (
	ErrInvalidGuildID  = errors.New("the guild ID must be a non-empty string")
	ErrInvalidMemberID = errors.New("the member ID must be a non-empty string")
	ErrInvalidAmount   = errors.New("the amount must be a valid number")
	ErrInvalidQuantity = errors.New("the quantity must be at least 1")
	ErrInvalidItemName = errors.New("the item name must be a non-empty string")
	ErrInvalidProperty = errors.New("the property cannot be edited")

	ErrCurrencyNotFound   = errors.New("the currency does not exist on the server")
	ErrSettingsKeyInvalid = errors.New("the settings key is not recognized")
	ErrSettingsValueType  = errors.New("the settings value has the wrong type for the key")
	ErrHistoryDisabled    = errors.New("the purchases history is disabled in the configuration")
	ErrUnknownRewardType  = errors.New("the reward type is not recognized")
)
