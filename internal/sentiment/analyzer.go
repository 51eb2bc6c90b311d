// Package sentiment scores a message's tone: base sentiment, urgency,
// frustration, and sarcasm, combined into a priority signal for routing.
// Detection is rule-based over ordered (pattern, weight) tables; order is
// the evaluation order and must stay fixed for reproducible output.
package sentiment

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/miwake-ai/miwake/internal/model"
)

// PriorityThreshold routes to the priority queue above this frustration.
const PriorityThreshold = 0.7

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

func wp(pattern string, weight float64) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(pattern), weight: weight}
}

var urgencyPatterns = []weightedPattern{
	wp(`\basap\b`, 0.9),
	wp(`\burgent(ly)?\b`, 0.9),
	wp(`\bimmediately\b`, 0.85),
	wp(`\bright now\b`, 0.8),
	wp(`\btoday\b`, 0.6),
	wp(`\bby (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`, 0.7),
	wp(`\bby (tomorrow|tonight|this morning|this afternoon|this evening)\b`, 0.8),
	wp(`\bwithin (\d+) (hour|day)s?\b`, 0.7),
	wp(`\bbefore (the weekend|monday)\b`, 0.7),
	wp(`\bi need (this|it) (now|today|soon)\b`, 0.75),
	wp(`\btime.?sensitive\b`, 0.85),
	wp(`\bemergency\b`, 0.95),
	wp(`\bcritical\b`, 0.8),
	wp(`\bcan't wait\b`, 0.75),
	wp(`\bdeadline\b`, 0.7),
	wp(`\bexpedite\b`, 0.8),
	wp(`\brush\b`, 0.7),
	wp(`\bpriority\b`, 0.65),
	wp(`\bimportant\b`, 0.5),
}

var frustrationPatterns = []weightedPattern{
	// Strong frustration
	wp(`\bthis is (ridiculous|unacceptable|outrageous|absurd)\b`, 0.95),
	wp(`\bworst (experience|service|company)\b`, 0.95),
	wp(`\b(horrible|terrible|awful) (experience|service)\b`, 0.9),
	wp(`\bi('m| am) (so )?(angry|furious|livid|fed up|done)\b`, 0.9),
	wp(`\bnever (ordering|buying|shopping) (here |from you )?again\b`, 0.95),
	wp(`\breport(ing)? (to |with )?(bbb|attorney general|lawyer)\b`, 0.95),
	wp(`\b(scam|fraud|steal|stolen|rip.?off)\b`, 0.9),
	wp(`\bcomplete(ly)? (unacceptable|incompetent)\b`, 0.9),
	wp(`\bwaste of (time|money)\b`, 0.85),
	// Medium frustration
	wp(`\bi('ve| have) (been waiting|waited|called|emailed) (\d+|\w+) times?\b`, 0.75),
	wp(`\bno (one|body) (is )?respond(s|ing|ed)?\b`, 0.8),
	wp(`\bstill (waiting|no response|nothing)\b`, 0.7),
	wp(`\bfor (days|weeks|months)\b`, 0.65),
	wp(`\bthis is the (\d+)(st|nd|rd|th) time\b`, 0.8),
	wp(`\b(very |really |extremely )?disappointed\b`, 0.7),
	wp(`\b(very |really |extremely )?frustrated\b`, 0.8),
	wp(`\b(very |really |extremely )?upset\b`, 0.75),
	wp(`\bunhappy\b`, 0.6),
	wp(`\bfed up\b`, 0.8),
	wp(`\bsick (and tired|of this)\b`, 0.85),
	// Lighter frustration
	wp(`\bnot (happy|satisfied|pleased)\b`, 0.55),
	wp(`\bfrustrat(ed|ing)\b`, 0.6),
	wp(`\bannoyed\b`, 0.5),
	wp(`\btired of\b`, 0.55),
	wp(`\bexhausted\b`, 0.5),
	wp(`\bconfused\b`, 0.4),
}

var escalationPatterns = []weightedPattern{
	wp(`\bspeak (to|with) (a |your )?(manager|supervisor)\b`, 0.8),
	wp(`\bescalate\b`, 0.85),
	wp(`\bhigher (up|authority)\b`, 0.75),
	wp(`\bsomeone (else|in charge)\b`, 0.65),
	wp(`\breal (person|human)\b`, 0.6),
	wp(`\bcancel(ling|ing)? (my )?(account|subscription|membership)\b`, 0.7),
	wp(`\b(refund|money back)\b`, 0.5), // contextual, lower weight
}

var sarcasmPatterns = []weightedPattern{
	wp(`\boh\s+great\b`, 0.75),
	wp(`\bfantastic[,.]`, 0.70),
	wp(`\bwonderful[,.]`, 0.70),
	wp(`\bjust\s+perfect\b`, 0.75),
	wp(`\bjust\s+great\b`, 0.75),
	wp(`\bhow\s+nice\b`, 0.65),
	wp(`\blovely[,.]`, 0.60),
	wp(`\bsuper[,.]`, 0.60),
	wp(`\bawesome[,.]`, 0.65),
	wp(`\bgreat[,.]`, 0.50),
	wp(`\bthanks\s+(?:so\s+much|a\s+lot)[,.]?\s+(?:for|now)`, 0.70),
	wp(`\breally[?!]+`, 0.55),
	wp(`\bwow[,.]`, 0.50),
}

// positivePatterns reduce frustration; the total reduction is capped.
var positivePatterns = []weightedPattern{
	wp(`\bthank(s| you)\b`, -0.2),
	wp(`\bappreciate\b`, -0.2),
	wp(`\bplease\b`, -0.1),
	wp(`\bgreat\b`, -0.15),
	wp(`\bhelp(ful|ed)\b`, -0.1),
	wp(`\bunderstand\b`, -0.1),
}

// negativeBoosters amplify an already-frustrated message.
var negativeBoosters = []*regexp.Regexp{
	regexp.MustCompile(`\b(very|really|extremely|absolutely|totally|completely)\b`),
	regexp.MustCompile(`\b(so|such)\b`),
	regexp.MustCompile(`!{2,}`),
}

var negativeWords = []string{
	"bad", "terrible", "horrible", "awful", "worst", "hate", "angry",
	"disappointed", "frustrated", "upset", "annoyed", "problem", "issue",
	"broken", "damaged", "wrong", "missing", "late", "slow", "never",
}

var positiveWords = []string{
	"good", "great", "excellent", "wonderful", "love", "happy", "satisfied",
	"thank", "thanks", "appreciate", "helpful", "perfect", "amazing",
}

var contradictionPositive = []string{
	"great", "wonderful", "fantastic", "amazing", "perfect", "awesome", "lovely",
}

var contradictionNegative = []string{
	"broken", "damaged", "wrong", "missing", "late", "never", "still waiting",
	"another", "again", "still no", "don't work", "doesn't work", "failed",
}

// Analyzer scores message tone. Stateless; safe for concurrent use.
type Analyzer struct{}

// New creates an analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze scores the message. Scores are rounded to three decimals so
// identical inputs are byte-identical on the wire.
func (a *Analyzer) Analyze(text string) model.SentimentResult {
	lower := strings.ToLower(text)
	var signals []string

	sentiment := ruleBasedSentiment(lower)

	urgency, urgencySignals := detectMax(lower, urgencyPatterns, "urgency")
	signals = append(signals, urgencySignals...)

	frustration, frustrationSignals := detectFrustration(lower)
	signals = append(signals, frustrationSignals...)

	escalation, escalationSignals := detectMax(lower, escalationPatterns, "escalation")
	signals = append(signals, escalationSignals...)

	sarcasm, sarcasmSignals := detectSarcasm(lower)
	signals = append(signals, sarcasmSignals...)

	// Sarcasm flips an apparently positive message negative.
	if sarcasm > 0.5 && sentiment > 0 {
		sentiment = -sentiment * sarcasm
		signals = append(signals, fmt.Sprintf("sentiment_flipped:%.2f", sentiment))
	}

	frustration = math.Min(1, frustration+escalation*0.3)
	frustration = math.Min(1, frustration+sarcasm*0.2)

	if sentiment < -0.3 {
		frustration = math.Min(1, frustration+math.Abs(sentiment)*0.2)
	}

	if capsRatio(text) > 0.3 && len(text) > 20 {
		frustration = math.Min(1, frustration+0.2)
		signals = append(signals, "excessive_caps")
	}

	frustration = math.Max(0, frustration+positiveAdjustment(lower))

	priority := frustration > PriorityThreshold
	if priority {
		signals = append(signals, "priority_flag")
	}

	return model.SentimentResult{
		Sentiment:    round3(sentiment),
		Urgency:      round3(urgency),
		Frustration:  round3(frustration),
		PriorityFlag: priority,
		Signals:      signals,
	}
}

func ruleBasedSentiment(lower string) float64 {
	var neg, pos int
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	if neg+pos == 0 {
		return 0
	}
	return float64(pos-neg) / float64(neg+pos)
}

func detectMax(lower string, patterns []weightedPattern, kind string) (float64, []string) {
	var maxScore float64
	var signals []string
	for _, p := range patterns {
		if p.re.MatchString(lower) {
			maxScore = math.Max(maxScore, p.weight)
			signals = append(signals, kind+":"+truncate(p.re.String(), 25))
		}
	}
	return maxScore, signals
}

// detectFrustration combines matched weights: the strongest signal carries
// 70%, the average of all matches the remaining 30%, plus a small booster
// bump per intensifier.
func detectFrustration(lower string) (float64, []string) {
	var scores []float64
	var signals []string
	for _, p := range frustrationPatterns {
		if m := p.re.FindString(lower); m != "" {
			scores = append(scores, p.weight)
			signals = append(signals, "frustration:"+truncate(m, 30))
		}
	}
	if len(scores) == 0 {
		return 0, signals
	}

	maxScore := scores[0]
	var sum float64
	for _, s := range scores {
		sum += s
		maxScore = math.Max(maxScore, s)
	}
	combined := maxScore
	if len(scores) > 1 {
		combined = maxScore*0.7 + (sum/float64(len(scores)))*0.3
	}

	boosters := 0
	for _, b := range negativeBoosters {
		if b.MatchString(lower) {
			boosters++
		}
	}
	if boosters > 0 {
		combined = math.Min(1, combined+float64(boosters)*0.05)
	}
	return math.Min(1, combined), signals
}

func detectSarcasm(lower string) (float64, []string) {
	maxScore, signals := detectMax(lower, sarcasmPatterns, "sarcasm_pattern")

	// Contradiction: a positive word within the same clause as a negative
	// one reads as sarcasm.
	for _, pos := range contradictionPositive {
		posIdx := strings.Index(lower, pos)
		if posIdx < 0 {
			continue
		}
		for _, neg := range contradictionNegative {
			negIdx := strings.Index(lower, neg)
			if negIdx < 0 {
				continue
			}
			if abs(posIdx-negIdx) < 50 {
				maxScore = math.Max(maxScore, 0.65)
				signals = append(signals, "contradiction:"+pos+"+"+neg)
				break
			}
		}
	}
	return maxScore, signals
}

func positiveAdjustment(lower string) float64 {
	var total float64
	for _, p := range positivePatterns {
		if p.re.MatchString(lower) {
			total += p.weight
		}
	}
	return math.Max(-0.4, total)
}

func capsRatio(text string) float64 {
	var alpha, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			alpha++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if alpha == 0 {
		return 0
	}
	return float64(upper) / float64(alpha)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
