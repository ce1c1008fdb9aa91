package domain

import (
	"regexp"
	"strings"
)

const (
	DefaultEmotion = "calm"
	kissGuardPose  = "blush"
)

var replyTagPattern = regexp.MustCompile(`(?i)<\s*(emotion|state|location|background|pose|avatar|prompt)\s*:\s*([^<>]*?)\s*>`)

// ParsedReply is a watcher reply with its inline tags lifted out.
type ParsedReply struct {
	Text       string
	Emotion    string
	Background string
	Pose       string
	Prompts    []string
}

// ParseReply extracts tags from raw. The last emotion, background and pose
// tag wins; prompts are collected in order. With skipPose the pose tags are
// still removed from the text but not reported.
func ParseReply(raw string, skipPose bool) ParsedReply {
	parsed := ParsedReply{Emotion: DefaultEmotion}

	for _, match := range replyTagPattern.FindAllStringSubmatch(raw, -1) {
		value := strings.TrimSpace(match[2])
		if value == "" {
			continue
		}
		switch strings.ToLower(match[1]) {
		case "emotion", "state":
			parsed.Emotion = value
		case "location", "background":
			parsed.Background = value
		case "pose", "avatar":
			if !skipPose {
				parsed.Pose = value
			}
		case "prompt":
			parsed.Prompts = append(parsed.Prompts, value)
		}
	}

	parsed.Text = stripReplyTags(raw)
	return parsed
}

func stripReplyTags(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := replyTagPattern.ReplaceAllString(line, "")
		if stripped != line && strings.TrimSpace(stripped) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(stripped, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// GuardPose downgrades kiss poses until hearts are full.
func GuardPose(pose string, hearts float64) string {
	if pose == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(pose), "kiss") && hearts < MaxHearts {
		return kissGuardPose
	}
	return pose
}
