package reply

import (
	"math/rand/v2"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
)

// TroubleMessage is returned when a turn cannot be processed at all.
const TroubleMessage = "I'm having trouble processing that right now. Can we try again?"

var cannedResponses = map[analysis.Label][]string{
	analysis.Sadness: {
		"I'm sorry to hear that you're feeling down. I'm here to listen.",
		"It's okay to feel sad sometimes. Do you want to talk about it?",
		"Sending you a virtual hug. You are not alone.",
		"Take your time. I'm here for you.",
		"Is there anything specific that's making you feel this way?",
	},
	analysis.Joy: {
		"I'm listening. Tell me more.",
		"That sounds positive.",
		"Keep going, I'm listening.",
		"I see. How does that make you feel?",
		"Glad to hear it.",
	},
	analysis.Love: {
		"That sounds lovely.",
		"It's good to have things we care about.",
		"Tell me more about that.",
		"I'm listening.",
		"Love is important.",
	},
	analysis.Anger: {
		"I hear your frustration. It's okay to let it out.",
		"Take a deep breath. I'm here to listen to your side.",
		"It sounds like you're going through a tough time.",
		"Anger is a valid emotion. Do you want to vent?",
		"I'm listening. Tell me what happened.",
	},
	analysis.Fear: {
		"It's okay to be scared. You are safe here.",
		"Take a deep breath. We can get through this together.",
		"I'm here with you. You don't have to face this alone.",
		"What can I do to help you feel more comfortable?",
		"Focus on the present moment. You are okay.",
	},
	analysis.Surprise: {
		"Wow! That sounds unexpected!",
		"Life is full of surprises, isn't it?",
		"That's quite a turn of events!",
		"Tell me more about it!",
		"How do you feel about this surprise?",
	},
}

// Neutral and Unknown turns draw from here.
var defaultResponses = []string{
	"I'm listening.",
	"Tell me more.",
	"I'm here for you.",
	"Go on, I'm listening.",
}

// CannedResponses returns the fallback pool for a label.
func CannedResponses(label analysis.Label) []string {
	if pool, ok := cannedResponses[label]; ok {
		return pool
	}
	return defaultResponses
}

func randomIndex(n int) int {
	return rand.IntN(n)
}
