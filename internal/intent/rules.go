package intent

import (
	"regexp"
	"strings"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// Input is the request text as seen by rules.
type Input struct {
	// Text is lower-cased, trimmed, whitespace-collapsed and stripped of trailing punctuation.
	Text string
	// Raw is the trimmed original text; command arguments are taken from it so case survives.
	Raw string
}

// Rule is one deterministic classification step. Rules run in order over
// normalized text and the first match wins.
type Rule struct {
	Name string
	// Match reports whether the rule applies and returns extracted entities.
	Match func(in Input, sctx models.StandardizedContext) (models.IntentTag, map[string]string, bool)
}

// command matches "/name" optionally followed by arguments. argKeys name the
// leading arguments; the last key receives the remainder of the text.
func command(name string, tag models.IntentTag, argKeys ...string) Rule {
	return Rule{
		Name: "command_" + strings.TrimPrefix(name, "/"),
		Match: func(in Input, _ models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			fields := strings.Fields(in.Raw)
			if len(fields) == 0 || strings.ToLower(fields[0]) != name {
				return "", nil, false
			}
			args := fields[1:]
			if len(argKeys) == 0 {
				return tag, nil, true
			}
			entities := make(map[string]string)
			for i, key := range argKeys {
				if i >= len(args) {
					break
				}
				if i == len(argKeys)-1 {
					entities[key] = strings.Join(args[i:], " ")
					break
				}
				entities[key] = args[i]
			}
			return tag, entities, true
		},
	}
}

// keywords matches when any phrase is contained in the text.
func keywords(name string, tag models.IntentTag, phrases ...string) Rule {
	return Rule{
		Name: name,
		Match: func(in Input, _ models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			text := in.Text
			for _, p := range phrases {
				if strings.Contains(text, p) {
					return tag, nil, true
				}
			}
			return "", nil, false
		},
	}
}

// exact matches when the whole text equals one of the phrases.
func exact(name string, tag models.IntentTag, phrases ...string) Rule {
	return Rule{
		Name: name,
		Match: func(in Input, _ models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			text := in.Text
			for _, p := range phrases {
				if text == p {
					return tag, nil, true
				}
			}
			return "", nil, false
		},
	}
}

// pattern matches a regexp; named groups become entities.
func pattern(name string, tag models.IntentTag, re *regexp.Regexp) Rule {
	return Rule{
		Name: name,
		Match: func(in Input, _ models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			text := in.Text
			m := re.FindStringSubmatch(text)
			if m == nil {
				return "", nil, false
			}
			entities := make(map[string]string)
			for i, group := range re.SubexpNames() {
				if group != "" && i < len(m) && m[i] != "" {
					entities[group] = strings.TrimSpace(m[i])
				}
			}
			return tag, entities, true
		},
	}
}

// bareStatus resolves the single word "status" by channel: leadership chats
// ask about the team, public chats ask about the sender.
func bareStatus() Rule {
	return Rule{
		Name: "bare_status",
		Match: func(in Input, sctx models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			if in.Text != "status" {
				return "", nil, false
			}
			if sctx.Privileged() {
				return models.IntentTeamOverview, nil, true
			}
			return models.IntentSelfStatus, nil, true
		},
	}
}

// scheduleMatch requires a scheduling verb and a match noun, then pulls the
// opponent and date out of the remaining text when present.
func scheduleMatch() Rule {
	return Rule{
		Name: "schedule_match",
		Match: func(in Input, _ models.StandardizedContext) (models.IntentTag, map[string]string, bool) {
			text := in.Text
			if !scheduleRe.MatchString(text) {
				return "", nil, false
			}
			entities := make(map[string]string)
			if m := opponentRe.FindStringSubmatch(text); m != nil {
				entities["opponent"] = m[1]
			}
			if m := dateRe.FindStringSubmatch(text); m != nil {
				entities["date"] = strings.TrimSpace(m[1])
			}
			return models.IntentScheduleMatch, entities, true
		},
	}
}

var (
	scheduleRe = regexp.MustCompile(`\b(?:schedule|book|arrange)\b.*\b(?:match|game|fixture)\b`)
	opponentRe = regexp.MustCompile(`\bagainst ([a-z0-9][a-z0-9-]*)`)
	dateRe     = regexp.MustCompile(`\bon ([a-z0-9][a-z0-9 :-]*)$`)
	playerRe   = regexp.MustCompile(`\b(?:info on|details for|look ?up|tell me about|who is)\s+(?P<player>[a-z][a-z' -]{1,40})$`)
	messageRe  = regexp.MustCompile(`^(?:tell|message|notify|announce to) (?:the )?(?:team|everyone|players|squad)(?: that)?[: ]\s*(?P<message>.+)$`)
)

// DefaultRules returns the built-in rule list. Commands come first, then
// channel-sensitive phrases, then keyword families from most to least specific.
func DefaultRules() []Rule {
	return []Rule{
		command("/help", models.IntentHelp),
		command("/start", models.IntentHelp),
		command("/status", models.IntentSelfStatus),
		command("/players", models.IntentListPlayers),
		command("/player", models.IntentPlayerLookup, "player"),
		command("/matches", models.IntentMatchInfo),
		command("/team", models.IntentTeamOverview),
		command("/availability", models.IntentAvailabilityReport),
		command("/message", models.IntentSendMessage, "message"),
		command("/schedule", models.IntentScheduleMatch, "opponent", "date"),

		keywords("self_status", models.IntentSelfStatus,
			"my status", "am i registered", "my registration", "my profile", "my stats"),
		bareStatus(),
		keywords("help", models.IntentHelp,
			"what can you do", "help me", "list of commands", "show commands", "how do i use"),
		exact("help_word", models.IntentHelp, "help", "commands"),
		keywords("availability", models.IntentAvailabilityReport,
			"availability", "who is available", "who's available", "who can play"),
		scheduleMatch(),
		pattern("send_message", models.IntentSendMessage, messageRe),
		keywords("list_players", models.IntentListPlayers,
			"list players", "list all players", "all players", "roster", "squad list", "show players", "who is on the team"),
		keywords("team_overview", models.IntentTeamOverview,
			"team overview", "team summary", "team stats", "how is the team", "team status"),
		keywords("match_info", models.IntentMatchInfo,
			"next match", "upcoming match", "fixtures", "when do we play", "last match", "match result"),
		pattern("player_lookup", models.IntentPlayerLookup, playerRe),
		exact("greeting", models.IntentChat, "hi", "hello", "hey", "thanks", "thank you"),
	}
}
