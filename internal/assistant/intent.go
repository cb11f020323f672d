package assistant

// Intent is the classified purpose of an utterance.
type Intent string

// Intents, listed in the order their rules are tried. IntentEmpty is the
// short-circuit for blank input and is never produced by a rule.
const (
	IntentEmpty              Intent = "empty"
	IntentHelp               Intent = "help"
	IntentGreeting           Intent = "greeting"
	IntentTellTime           Intent = "tell_time"
	IntentTellDate           Intent = "tell_date"
	IntentFarewell           Intent = "farewell"
	IntentJoke               Intent = "joke"
	IntentAdd                Intent = "add"
	IntentSubtract           Intent = "subtract"
	IntentMultiply           Intent = "multiply"
	IntentDivide             Intent = "divide"
	IntentPercentage         Intent = "percentage"
	IntentTemperatureConvert Intent = "temperature_convert"
	IntentDistanceConvert    Intent = "distance_convert"
	IntentSquareRoot         Intent = "square_root"
	IntentPower              Intent = "power"
	IntentExpressionEvaluate Intent = "expression_evaluate"
	IntentRememberName       Intent = "remember_name"
	IntentRecallName         Intent = "recall_name"
	IntentAssistantIdentity  Intent = "assistant_identity"
	IntentRandomInRange      Intent = "random_in_range"
	IntentRandomNumber       Intent = "random_number"
	IntentUnrecognized       Intent = "unrecognized"
)
