package button

import "time"

// kind is the event delivered to a Machine.
type kind uint8

const (
	evPressed kind = iota
	evReleased
	evSimPressed  // partner notification, pressed=true
	evSimReleased // partner notification, pressed=false
)

// input is everything the transition function needs to know about one
// event. Partner resolution and elapsed-time math happen before the step.
type input struct {
	kind      kind
	elapsed   time.Duration // since the recorded press timestamp
	hold      time.Duration
	simWindow time.Duration
	tap       time.Duration // tap window of the active binding
	hasCombos bool
	hasHold   bool
	// partner reports that the Combo Resolver found a partner in the same
	// state. combo is the matched ComboMap on this side, or for sim events
	// this side's ComboMap toward the notifier.
	partner bool
	combo   *ComboMap
}

type effectKind uint8

const (
	fxPress   effectKind = iota // apply press action
	fxRelease                   // apply release action
	fxHold                      // apply hold action
	fxStamp                     // record press timestamp
	fxBind                      // remember combo as the active combo
	fxUnbind                    // forget the active combo
	fxNotify                    // send a sim event to combo.Partner
	fxFault                     // log a desynchronization fault
)

// effect is one side effect of a transition. combo is nil for the button's
// own bindings.
type effect struct {
	kind    effectKind
	tap     bool
	pressed bool
	combo   *ComboMap
	msg     string
}

// transition is the Button Machine table. It returns the next state and
// appends the side effects, in order, to fx. It never touches a Machine.
func transition(s State, in input, fx []effect) (State, []effect) {
	switch s {
	case NoPress:
		if in.kind != evPressed {
			return s, fx
		}
		switch {
		case in.hasCombos:
			return enter(s, WaitSim, fx)
		case in.hasHold:
			return enter(s, WaitHold, fx)
		default:
			return enter(s, BtnPress, fx)
		}

	case BtnPress, HoldPress:
		if in.kind == evReleased {
			return enter(s, NoPress, fx)
		}
		return s, fx

	case WaitSim:
		switch in.kind {
		case evPressed:
			if in.partner {
				fx = append(fx, effect{kind: fxBind, combo: in.combo})
				if in.combo.HasHold() {
					fx = append(fx, effect{kind: fxNotify, pressed: true, combo: in.combo})
					return enter(s, WaitSimHold, fx)
				}
				fx = append(fx,
					effect{kind: fxPress, combo: in.combo},
					effect{kind: fxNotify, pressed: true, combo: in.combo})
				return enter(s, SimPress, fx)
			}
			if in.elapsed < in.simWindow {
				return s, fx
			}
			if in.hasHold {
				return enter(s, WaitHold, fx)
			}
			return enter(s, BtnPress, fx)
		case evReleased:
			return enter(s, TapRelease, fx)
		case evSimPressed:
			if in.combo == nil {
				return s, fx
			}
			fx = append(fx, effect{kind: fxBind, combo: in.combo})
			if in.combo.HasHold() {
				return enter(s, WaitSimHold, fx)
			}
			return enter(s, SimPress, fx)
		}
		return s, fx

	case WaitHold:
		switch in.kind {
		case evPressed:
			if in.elapsed >= in.hold {
				return enter(s, HoldPress, fx)
			}
		case evReleased:
			return enter(s, TapRelease, fx)
		}
		return s, fx

	case SimPress, SimHold:
		switch in.kind {
		case evReleased:
			if !in.partner {
				return fault(s, fx)
			}
			fx = append(fx,
				effect{kind: fxRelease, combo: in.combo},
				effect{kind: fxNotify, pressed: false, combo: in.combo})
			return enter(s, SimRelease, fx)
		case evSimPressed, evSimReleased:
			return enter(s, SimRelease, fx)
		}
		return s, fx

	case WaitSimHold:
		switch in.kind {
		case evPressed:
			if !in.partner {
				return fault(s, fx)
			}
			if in.elapsed < in.hold {
				return s, fx
			}
			fx = append(fx,
				effect{kind: fxHold, combo: in.combo},
				effect{kind: fxNotify, pressed: true, combo: in.combo})
			return enter(s, SimHold, fx)
		case evReleased:
			if !in.partner {
				return fault(s, fx)
			}
			fx = append(fx,
				effect{kind: fxPress, tap: true, combo: in.combo},
				effect{kind: fxNotify, pressed: false, combo: in.combo})
			return enter(s, SimTapRelease, fx)
		case evSimPressed:
			return enter(s, SimHold, fx)
		case evSimReleased:
			return enter(s, SimTapRelease, fx)
		}
		return s, fx

	case SimRelease:
		if in.kind == evReleased {
			return enter(s, NoPress, fx)
		}
		return s, fx

	case SimTapRelease:
		switch in.kind {
		case evPressed:
		case evReleased:
			if !tapElapsed(in) {
				return s, fx
			}
		default:
			return enter(s, SimRelease, fx)
		}
		fx = append(fx,
			effect{kind: fxRelease, tap: true, combo: in.combo},
			effect{kind: fxNotify, pressed: false, combo: in.combo})
		return enter(s, SimRelease, fx)

	case TapRelease:
		switch in.kind {
		case evPressed:
			return enter(s, NoPress, fx)
		case evReleased:
			if tapElapsed(in) {
				return enter(s, NoPress, fx)
			}
		}
		return s, fx
	}

	// Out-of-range state: recover like any other desync.
	return fault(s, fx)
}

// enter appends the exit effects of from and the entry effects of to.
func enter(from, to State, fx []effect) (State, []effect) {
	switch from {
	case BtnPress, HoldPress:
		fx = append(fx, effect{kind: fxRelease})
	case TapRelease:
		fx = append(fx, effect{kind: fxRelease, tap: true})
	}

	switch to {
	case BtnPress:
		fx = append(fx, effect{kind: fxPress})
	case HoldPress:
		fx = append(fx, effect{kind: fxHold})
	case TapRelease:
		fx = append(fx, effect{kind: fxPress, tap: true}, effect{kind: fxStamp})
	case WaitSim, WaitSimHold, SimTapRelease:
		fx = append(fx, effect{kind: fxStamp})
	case WaitHold:
		// Falling back from WaitSim keeps the physical press time.
		if from != WaitSim {
			fx = append(fx, effect{kind: fxStamp})
		}
	case NoPress:
		fx = append(fx, effect{kind: fxUnbind})
	}
	return to, fx
}

// fault drops any queued effects of this step and resets to NoPress.
func fault(s State, fx []effect) (State, []effect) {
	fx = append(fx[:0],
		effect{kind: fxFault, msg: "no simultaneous press partner in " + s.String() + ", reset to NoPress"},
		effect{kind: fxUnbind})
	return NoPress, fx
}

func tapElapsed(in input) bool {
	return in.elapsed >= in.tap-TapSlack
}
