// Keep in sync with flags.yml; TestList_MatchesFlagsYAML enforces it.

package feature

import "github.com/fieldday/flagd/kit/feature/lifetime"

var voiceSortingEnabled = MakeBoolFlag(
	"Voice Sorting",
	"voiceSortingEnabled",
	"Coaching Experience",
	false,
	lifetime.Temporary,
	true,
)

// VoiceSortingEnabled - Kill switch for sorting drills by voice command
func VoiceSortingEnabled() BoolFlag {
	return voiceSortingEnabled
}

var voiceSortingRolloutPercentage = MakePercentFlag(
	"Voice Sorting Rollout",
	"voiceSortingRolloutPercentage",
	"Coaching Experience",
	0,
	lifetime.Temporary,
	true,
)

// VoiceSortingRolloutPercentage - Share of athletes who get voice sorting while the switch is on
func VoiceSortingRolloutPercentage() PercentFlag {
	return voiceSortingRolloutPercentage
}

var aiCoachEnabled = MakeBoolFlag(
	"AI Coach",
	"aiCoachEnabled",
	"Coaching Experience",
	true,
	lifetime.Permanent,
	true,
)

// AiCoachEnabled - Show the AI coach panel in training sessions
func AiCoachEnabled() BoolFlag {
	return aiCoachEnabled
}

var realtimeVoiceCoach = MakeBoolFlag(
	"Realtime Voice Coach",
	"realtimeVoiceCoach",
	"Coaching Experience",
	false,
	lifetime.Temporary,
	true,
)

// RealtimeVoiceCoach - Stream spoken cues from the coach during drills
func RealtimeVoiceCoach() BoolFlag {
	return realtimeVoiceCoach
}

var newCheckoutFlow = MakePercentFlag(
	"New Checkout Flow",
	"newCheckoutFlow",
	"Storefront",
	0,
	lifetime.Temporary,
	false,
)

// NewCheckoutFlow - Share of shoppers sent through the redesigned checkout
func NewCheckoutFlow() PercentFlag {
	return newCheckoutFlow
}

var drillLibraryV2 = MakeBoolFlag(
	"Drill Library V2",
	"drillLibraryV2",
	"Training Content",
	false,
	lifetime.Temporary,
	true,
)

// DrillLibraryV2 - Serve drills from the restructured content library
func DrillLibraryV2() BoolFlag {
	return drillLibraryV2
}

var all = []Flag{
	voiceSortingEnabled,
	voiceSortingRolloutPercentage,
	aiCoachEnabled,
	realtimeVoiceCoach,
	newCheckoutFlow,
	drillLibraryV2,
}

var byKey = map[string]Flag{
	"voiceSortingEnabled":           voiceSortingEnabled,
	"voiceSortingRolloutPercentage": voiceSortingRolloutPercentage,
	"aiCoachEnabled":                aiCoachEnabled,
	"realtimeVoiceCoach":            realtimeVoiceCoach,
	"newCheckoutFlow":               newCheckoutFlow,
	"drillLibraryV2":                drillLibraryV2,
}
