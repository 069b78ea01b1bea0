package overview

import "github.com/noah-isme/gema-overview-api/internal/models"

// TrackingState returns whether the viewer effectively tracks a forum and whether the
// tracking toggle is locked.
//
// A forced forum is treated as optional when the site does not allow forced read tracking.
// userUntracked is the per-forum opt-out, honoured only in optional mode.
func TrackingState(mode models.TrackingMode, allowForced, userTrackForums, userUntracked bool) (tracked, disabled bool) {
	if mode == models.TrackingForced && !allowForced {
		mode = models.TrackingOptional
	}

	switch mode {
	case models.TrackingOff:
		return false, true
	case models.TrackingForced:
		return true, true
	default:
		return userTrackForums && !userUntracked, !userTrackForums
	}
}

// SubscriptionState returns whether the viewer is subscribed to a forum and whether the
// subscription toggle is locked. preference is the stored choice, nil when none was made.
func SubscriptionState(mode models.SubscriptionMode, role ViewerRole, preference *bool) (subscribed, disabled bool) {
	switch mode {
	case models.SubscriptionForced:
		return true, true
	case models.SubscriptionDisallow:
		if role == RoleTeacher {
			return boolOr(preference, false), false
		}
		return false, true
	case models.SubscriptionInitial:
		return boolOr(preference, true), false
	default:
		return boolOr(preference, false), false
	}
}

// CanChooseDigest reports whether the viewer may pick a digest type for the forum.
func CanChooseDigest(mode models.SubscriptionMode, role ViewerRole) bool {
	return !(mode == models.SubscriptionDisallow && role == RoleStudent)
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
