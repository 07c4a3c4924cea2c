package signals

import (
	"time"

	"indicator-go/errcode"
	"indicator-go/types"
)

// Set payloads arrive typed from in-process callers, or as decoded JSON
// objects and bare names from bridged links.

func decodeLEDSet(p any) (types.LEDSet, error) {
	switch v := p.(type) {
	case types.LEDSet:
		return v, nil
	case *types.LEDSet:
		if v != nil {
			return *v, nil
		}
	case types.LEDState:
		return types.LEDSet{State: v}, nil
	case string:
		if st, ok := types.ParseLEDState(v); ok {
			return types.LEDSet{State: st}, nil
		}
	case map[string]any:
		if name, ok := v["state"].(string); ok {
			if st, ok := types.ParseLEDState(name); ok {
				return types.LEDSet{State: st}, nil
			}
		}
	}
	return types.LEDSet{}, errcode.InvalidPayload
}

func decodeSpeakerSet(p any) (types.SpeakerSet, error) {
	switch v := p.(type) {
	case types.SpeakerSet:
		return v, nil
	case *types.SpeakerSet:
		if v != nil {
			return *v, nil
		}
	case map[string]any:
		mn, _ := v["mode"].(string)
		sn, _ := v["sound"].(string)
		m, ok1 := types.ParseSpeakerMode(mn)
		s, ok2 := types.ParseSpeakerSound(sn)
		if ok1 && ok2 {
			return types.SpeakerSet{Mode: m, Sound: s}, nil
		}
	}
	return types.SpeakerSet{}, errcode.InvalidPayload
}

func reportInterval(p any) (time.Duration, bool) {
	var ms uint32
	switch v := p.(type) {
	case Config:
		ms = v.ReportMs
	case map[string]any:
		f, ok := v["report_ms"].(float64)
		if !ok || f <= 0 {
			return 0, false
		}
		ms = uint32(f)
	default:
		return 0, false
	}
	if ms == 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
