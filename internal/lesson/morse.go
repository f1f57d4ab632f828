package lesson

import (
	"math"
	"time"
)

var morse = map[rune]string{
	'K': "-.-", 'M': "--", 'U': "..-", 'R': ".-.",
	'E': ".", 'S': "...", 'N': "-.", 'A': ".-",
	'P': ".--.", 'T': "-", 'L': ".-..", 'W': ".--",
	'I': "..", '.': ".-.-.-", 'J': ".---", 'Z': "--..",
	'=': "-...-", 'F': "..-.", 'O': "---", 'Y': "-.--",
	',': "--..--", 'V': "...-", 'G': "--.", '5': ".....",
	'/': "-..-.", 'Q': "--.-", '9': "----.", '2': "..---",
	'H': "....", '3': "...--", '8': "---..", 'B': "-...",
	'?': "..--..", '4': "....-", '7': "--...", 'C': "-.-.",
	'1': ".----", 'D': "-..", '6': "-....", '0': "-----",
	'X': "-..-",
}

// Code returns the dit/dah pattern for r.
func Code(r rune) (string, bool) {
	code, ok := morse[r]
	return code, ok
}

const (
	leadIn  = 800 * time.Millisecond
	tailOut = 1200 * time.Millisecond
	// PARIS has 19 space units between its characters and words.
	parisSpaceUnits = 19
)

// Timing holds element durations for a given speed, with Farnsworth spacing
// when the effective speed is below the character speed.
type Timing struct {
	Dit        time.Duration
	Dah        time.Duration
	Element    time.Duration
	CharSpace  time.Duration
	WordSpace  time.Duration
	CharWPM    int
	EffWPM     int
	farnsworth bool
}

// NewTiming computes PARIS timing. Non-positive speeds fall back to defaults.
func NewTiming(charWPM, effectiveWPM int) Timing {
	if charWPM <= 0 {
		charWPM = DefaultCharWPM
	}
	if effectiveWPM <= 0 || effectiveWPM > charWPM {
		effectiveWPM = charWPM
	}
	dit := seconds(1.2 / float64(charWPM))
	t := Timing{
		Dit:       dit,
		Dah:       3 * dit,
		Element:   dit,
		CharSpace: 3 * dit,
		WordSpace: 7 * dit,
		CharWPM:   charWPM,
		EffWPM:    effectiveWPM,
	}
	if effectiveWPM < charWPM {
		extra := 60.0/float64(effectiveWPM) - 60.0/float64(charWPM)
		perUnit := extra / parisSpaceUnits
		t.CharSpace += seconds(3 * perUnit)
		t.WordSpace += seconds(7 * perUnit)
		t.farnsworth = true
	}
	return t
}

// Farnsworth reports whether spacing is stretched beyond the standard ratio.
func (t Timing) Farnsworth() bool {
	return t.farnsworth
}

// Char returns the sounding time of a single character, without trailing space.
func (t Timing) Char(r rune) time.Duration {
	code, ok := morse[r]
	if !ok {
		return 0
	}
	var d time.Duration
	for i, sym := range code {
		if sym == '.' {
			d += t.Dit
		} else {
			d += t.Dah
		}
		if i < len(code)-1 {
			d += t.Element
		}
	}
	return d
}

// Duration estimates the length of the audio rendering of text, including
// the lead-in and tail silence used by the material generator.
func (t Timing) Duration(text string) time.Duration {
	runes := []rune(text)
	d := leadIn
	for i, r := range runes {
		if r == ' ' {
			d += t.WordSpace
			continue
		}
		d += t.Char(r)
		if i < len(runes)-1 && runes[i+1] != ' ' {
			d += t.CharSpace
		}
	}
	return d + tailOut
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}
