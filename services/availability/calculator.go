package availability

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"slotwise/models"
)

// DefaultTierLabel is assigned to hours no configured tier covers.
const DefaultTierLabel = "standard"

// Compute enumerates the hourly slots of a resource for one date. Hours come
// from the enabled sub-ranges of the weekday's schedule; an hour is
// unavailable when any existing booking occupies it; price and label come
// from the first matching tier, falling back to the base price. Malformed
// range bounds are skipped, and a disabled (or absent) day yields no slots.
func Compute(date time.Time, schedule models.WeekSchedule, bookings []models.Booking, tiers []models.PriceTier, basePrice float64) []models.AvailabilitySlot {
	day, ok := schedule[strings.ToLower(date.Weekday().String())]
	if !ok || !day.Enabled {
		return nil
	}

	occupied := make(map[int]bool, len(bookings))
	for _, b := range bookings {
		occupied[b.ScheduledAt.In(date.Location()).Hour()] = true
	}

	seen := make(map[int]bool)
	var slots []models.AvailabilitySlot
	for _, rng := range day.Ranges {
		start, err := parseHour(rng.Start)
		if err != nil {
			continue
		}
		end, err := parseHour(rng.End)
		if err != nil {
			continue
		}
		for hour := start; hour < end; hour++ {
			if seen[hour] {
				continue
			}
			seen[hour] = true

			price, label := resolveTier(hour, tiers, basePrice)
			slots = append(slots, models.AvailabilitySlot{
				Hour:      hour,
				Available: !occupied[hour],
				Price:     price,
				Tier:      label,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Hour < slots[j].Hour })
	return slots
}

// resolveTier picks the first tier covering the hour, else the default.
func resolveTier(hour int, tiers []models.PriceTier, basePrice float64) (float64, string) {
	for _, t := range tiers {
		if hour >= t.StartHour && hour < t.EndHour {
			return t.Price, t.Label
		}
	}
	return basePrice, DefaultTierLabel
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if h < 0 {
		h = 0
	}
	if h > 24 {
		h = 24
	}
	return h, nil
}
