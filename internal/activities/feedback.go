package activities

import (
	"fmt"

	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// Feedback channel names understood by the handheld devices. Each maps
// to a single-element array of command strings; LED commands are RGB
// triples joined with commas.
const (
	ChannelLED     = "led"
	ChannelDisplay = "display"
	ChannelScan    = "scan"
)

const ledGreen = "0,255,0"

// amberAt renders the amber LED command at a given intensity between 0
// and 1.
func amberAt(intensity float64) string {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	return fmt.Sprintf("%d,%d,%d",
		int(255*intensity),
		int(191*intensity),
		0,
	)
}

// EncodeFeedback derives the device command set from a batch outcome:
// green plus a cleared scan buffer when every crate succeeded; amber at
// an intensity proportional to the failure share when an under
// tolerance failure occurred (the paired allow_final_crate flag lets
// the operator force-finalize); otherwise no commands, leaving the
// device in its prior state so the operator retries the failed crate.
func EncodeFeedback(outcomes []models.CrateOutcome) map[string][]string {
	if len(outcomes) == 0 {
		return map[string][]string{}
	}

	failed := 0
	underTolerance := false
	firstFailure := ""
	for _, o := range outcomes {
		if o.Success {
			continue
		}
		failed++
		if firstFailure == "" {
			firstFailure = o.Message
		}
		if o.AllowFinalCrate {
			underTolerance = true
		}
	}

	if failed == 0 {
		return map[string][]string{
			ChannelLED:  {ledGreen},
			ChannelScan: {""},
		}
	}

	if underTolerance {
		intensity := float64(failed) / float64(len(outcomes))
		return map[string][]string{
			ChannelLED:     {amberAt(intensity)},
			ChannelDisplay: {firstFailure},
		}
	}

	return map[string][]string{}
}
