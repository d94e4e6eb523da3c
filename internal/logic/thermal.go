package logic

// NextThermal evaluates the thermal machine once against the current
// temperature and returns the new state and the relay level it drives.
//
// There is no hysteresis band: a reading sitting exactly on the threshold keeps
// the fan on, and readings alternating across it toggle the relay on every
// invocation.
func NextThermal(state ThermalState, tempF, thresholdF int) (next ThermalState, relayHigh bool) {
	switch state {
	case ThermalFanOn:
		if tempF < thresholdF {
			next = ThermalIdle
		} else {
			next = ThermalFanOn
		}
	default:
		if tempF >= thresholdF {
			next = ThermalFanOn
		} else {
			next = ThermalIdle
		}
	}
	return next, next == ThermalFanOn
}

// TransitionEvent returns the event type for a thermal state change, or
// nil when the state did not change.
func TransitionEvent(from, to ThermalState) *EventType {
	if from == to {
		return nil
	}
	event := EventFanOff
	if to == ThermalFanOn {
		event = EventFanOn
	}
	return &event
}
