// Package devices renders the flavour text derived from a user's simulated
// devices and green points: load forecast and money saved.
package devices

import (
	"fmt"
	"math/rand/v2"

	"github.com/dustin/go-humanize"

	"github.com/chris/greenclass/internal/store"
)

// Per-device draw range for the hourly forecast, in watts.
const (
	minDeviceWatts = 50
	maxDeviceWatts = 150
)

// TengePerPoint converts green points to money saved.
const TengePerPoint = 2

// Active counts devices that are switched on.
func Active(devs []store.Device) int {
	n := 0
	for _, d := range devs {
		if d.On() {
			n++
		}
	}
	return n
}

// ForecastWatts estimates next-hour consumption. The per-device draw is
// sampled once for the whole set.
func ForecastWatts(active int, rnd *rand.Rand) int {
	if active <= 0 {
		return 0
	}
	var draw int
	if rnd != nil {
		draw = minDeviceWatts + rnd.IntN(maxDeviceWatts-minDeviceWatts+1)
	} else {
		draw = minDeviceWatts + rand.IntN(maxDeviceWatts-minDeviceWatts+1)
	}
	return active * draw
}

func Forecast(active int, rnd *rand.Rand) string {
	return fmt.Sprintf("Energy consumption forecast for the next hour: %s W ⚡️", humanize.Comma(int64(ForecastWatts(active, rnd))))
}

// MoneySaved describes what the user's points are worth.
func MoneySaved(points int) string {
	money := points * TengePerPoint
	amount := humanize.Comma(int64(money)) + "₸"
	switch {
	case money >= 6000:
		return fmt.Sprintf("You saved %s! 🎉 Equivalent to a train trip from Pavlodar to Almaty 🚆", amount)
	case money >= 1000:
		return fmt.Sprintf("You saved %s! 🎉 Equivalent to a cinema trip with friends 🍿", amount)
	case money >= 10:
		return fmt.Sprintf("You saved %s! 🎉 Equivalent to the cost of stationery 💰 Keep saving!", amount)
	default:
		return fmt.Sprintf("You saved %s 💰 Keep saving!", amount)
	}
}
