package game

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// solutions is the built-in pool a host draws from when no word is
// given. Common five-letter words only; obscure picks make for a bad
// duel.
var solutions = []string{
	"about", "above", "actor", "adapt", "agree", "alarm", "alone", "angel", "anger", "apple",
	"arrow", "bacon", "badge", "basic", "beach", "began", "birth", "black", "blade", "blame",
	"blank", "blend", "block", "board", "brain", "brave", "bread", "break", "brick", "bride",
	"bring", "broad", "brown", "brush", "build", "burst", "cabin", "candy", "cargo", "catch",
	"cause", "chain", "chair", "chalk", "charm", "chase", "cheap", "check", "chess", "chest",
	"chief", "child", "claim", "clean", "clear", "climb", "clock", "close", "cloud", "coach",
	"coast", "count", "court", "cover", "crane", "crash", "cream", "crisp", "crowd", "crown",
	"dance", "delay", "dense", "depth", "diary", "dirty", "dozen", "draft", "drama", "dream",
	"dress", "drift", "drink", "drive", "eager", "early", "earth", "eight", "elbow", "empty",
	"enjoy", "enter", "equal", "error", "event", "exact", "fable", "faith", "fancy", "fault",
	"feast", "fever", "field", "fifty", "fight", "final", "flame", "flash", "fleet", "float",
	"flock", "floor", "flour", "fluid", "focus", "force", "forge", "found", "frame", "fresh",
	"front", "frost", "fruit", "giant", "glass", "globe", "glory", "grace", "grade", "grain",
	"grand", "grant", "grape", "grasp", "grass", "great", "green", "greet", "grill", "group",
	"guard", "guess", "guide", "habit", "happy", "harsh", "heart", "heavy", "honey", "horse",
	"hotel", "house", "human", "humor", "ideal", "image", "index", "inner", "issue", "ivory",
	"jolly", "judge", "juice", "knife", "knock", "label", "large", "laugh", "layer", "learn",
	"lemon", "level", "light", "limit", "local", "logic", "loose", "lucky", "lunch", "magic",
	"major", "maple", "march", "match", "medal", "merit", "metal", "might", "minor", "model",
	"money", "month", "moral", "motor", "mount", "mouse", "mouth", "movie", "music", "night",
	"noble", "noise", "north", "novel", "nurse", "ocean", "offer", "olive", "onion", "order",
	"other", "ought", "paint", "panel", "paper", "party", "pause", "peace", "pearl", "phase",
	"piano", "piece", "pilot", "pitch", "place", "plain", "plane", "plant", "plate", "point",
	"pound", "power", "press", "price", "pride", "prime", "print", "prize", "proof", "proud",
	"pulse", "queen", "quick", "quiet", "radio", "raise", "range", "rapid", "reach", "ready",
	"realm", "rhyme", "river", "roast", "robin", "rocky", "round", "route", "royal", "rural",
	"salad", "salty", "scale", "scene", "scope", "score", "sense", "serve", "seven", "shade",
	"shake", "shape", "share", "sharp", "sheep", "shelf", "shell", "shine", "shirt", "shore",
	"short", "sight", "since", "skill", "sleep", "slice", "small", "smart", "smile", "smoke",
	"snake", "solid", "sound", "south", "space", "spare", "speak", "speed", "spend", "spice",
	"spite", "sport", "staff", "stage", "stair", "stamp", "stand", "start", "state", "steam",
	"steel", "stick", "still", "stone", "store", "storm", "story", "stove", "style", "sugar",
	"sunny", "sweet", "table", "taste", "teach", "thank", "theme", "thick", "thing", "think",
	"three", "throw", "tiger", "tight", "title", "toast", "today", "token", "topic", "total",
	"touch", "tower", "trace", "track", "trade", "trail", "train", "treat", "trend", "trial",
	"trick", "trust", "truth", "twice", "under", "union", "unity", "upper", "urban", "usual",
	"valid", "value", "video", "visit", "vital", "voice", "wagon", "waste", "watch", "water",
	"wheat", "wheel", "where", "which", "white", "whole", "world", "worth", "wound", "wrist",
	"write", "wrong", "yield", "young", "youth",
}

// RandomWord picks a solution from the built-in pool.
func RandomWord() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(solutions))))
	if err != nil {
		panic(err)
	}
	return strings.ToUpper(solutions[n.Int64()])
}

// IsKnown reports whether word is in the built-in pool. Hosts may still
// pick words outside it; this is advisory.
func IsKnown(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, w := range solutions {
		if w == word {
			return true
		}
	}
	return false
}
