package service

import (
	"regexp"
	"strings"

	"hoa-advisor-go/pkg/guideline"
)

// 输入长度上限（按字符计）。
const (
	MaxMessageChars     = 2000
	MaxAddressChars     = 500
	MaxDescriptionChars = 5000
	MaxNotesChars       = 2000
)

// DefaultPhotoMessage 是上传照片但未附带文字时使用的用户消息。
const DefaultPhotoMessage = "Please analyze this photo of my property for HOA compliance."

const visualRules = `ASSOCIATION VISUAL RULES (SUMMARY)

Exterior color: avoid bright or neon body colors such as hot pink, lime green, purple, orange or bright yellow. Colors must blend with the street and neighboring homes. Trim should contrast with and complement the siding. Brick, stone and natural wood are acceptable. Gutters match the siding, trim or roof. Garage doors match or complement the body color; wood garage doors are stained.

Fences: at most 6 ft in side and rear yards and at most 4 ft where visible from the street or front yard. No more than a 4 in gap at grade. Wood, vinyl and wrought iron or aluminum are acceptable; chain link only in rear yards hidden from the street. No leaning, rotten, broken or missing boards. Natural wood, white or black finishes. Fences along association open space match the association style.

Roofs: black, dark grey or brown / weathered wood tones only. Composition shingles of at least a 5/8 in profile from approved manufacturers. No missing shingles, visible damage or moss.

Doors and windows: frame color consistent on every elevation. No cardboard, foil or other makeshift coverings. Skylights are flat, not domed, and rise no more than 10 in above the roof. Trim surrounds are expected on most windows.

Landscaping: front yards are planted (lawn, beds, mulch or groundcover); bare dirt or gravel needs approval. Weeds are controlled. Trees and shrubs do not overhang sidewalks or the street. Foundation plantings soften exposed concrete.

Solar: panels mounted flush with the roof plane, placed to limit street visibility, owner-owned, clean and maintained. No ground arrays visible from the street.

Satellite dishes: 1 m diameter maximum, least visible location, not on street-facing walls or roof planes when an alternative exists.

Basketball hoops: portable hoops stored when not in use and never left at the curb. Permanent poles and backboards in black, grey or white, preferably in side or rear yards.

Lighting: fixtures fully shielded with no bare bulbs visible from the street or neighbors. No neon, colored or commercial-style lighting. At most 2 flood heads per location. Nothing mounted on trees or utility poles.

Signs: only for-sale or for-rent signs (24x36 in max, one per lot, two on corners), small security signs and approved association signs. Address signs 12x12 in max. No business signs, no signs on trees, temporary event signs removed promptly.

Flags: US, state and military flags allowed. Permanent flagpoles and any pole over 20 ft need review committee approval, as does flagpole lighting.

Other structures: sheds screened from the street in colors that match the home. Play structures in rear yards. Pergolas and gazebos reviewed case by case.`

const analysisContract = `HOW TO ANALYZE
1. Look at every exterior element that is visible.
2. Compare each element with the rules above.
3. Report only what you can actually see. Do not guess about elements that are not visible.
4. List what could not be assessed from this photo or angle.
5. Borderline or unclear cases are "needs_attention", not "violation".
6. Be constructive and encouraging.
7. Remind the homeowner that this is a preliminary automated assessment and only an official review committee inspection is definitive.

Respond with a single JSON object and nothing else, in exactly this shape:
{
  "compliance_status": "compliant" | "needs_attention" | "violation" | "inconclusive",
  "summary": "2-3 sentence plain English summary for the homeowner",
  "issues": [
    {
      "element": "the element, e.g. 'Front yard fence'",
      "status": "compliant" | "needs_attention" | "violation",
      "detail": "what you observed and which rule applies"
    }
  ],
  "recommendations": ["an actionable next step"],
  "not_assessed": ["an element that could not be evaluated"],
  "message": "a friendly 2-4 sentence reply to show the homeowner"
}

compliance_status meanings:
- "compliant": everything visible looks fine
- "needs_attention": at least one item is borderline or unclear
- "violation": at least one clear violation is visible
- "inconclusive": the photo quality or angle prevents a meaningful assessment`

// BaseSystemPrompt 是所有模型调用共享的系统指令。
var BaseSystemPrompt = "You are the homeowners association compliance assistant. You help residents understand the association's architectural guidelines and review photos of their property for potential issues.\n\n" +
	visualRules + "\n\n" + analysisContract

// GuidelineBlock 将分类全文包装成带标签的上下文块。
func GuidelineBlock(cat guideline.Category, text string) string {
	return "FULL GUIDELINE TEXT — " + cat.Label + ":\n\n" + text
}

// AnalysisSystemPrompt 返回分析请求的系统指令，有规范上下文时追加到末尾。
func AnalysisSystemPrompt(guidelineContext string) string {
	if guidelineContext == "" {
		return BaseSystemPrompt
	}
	return BaseSystemPrompt + "\n\nFULL GUIDELINE CONTEXT FOR THIS REQUEST:\n" + guidelineContext
}

// ChatSystemPrompt 返回续聊请求的系统指令。
func ChatSystemPrompt(guidelineContext string) string {
	if guidelineContext == "" {
		return BaseSystemPrompt
	}
	return BaseSystemPrompt + "\n\nADDITIONAL GUIDELINE CONTEXT FOR THIS RESPONSE:\n" + guidelineContext
}

// 提示注入启发式规则：指令覆盖、角色重置、已知越狱标记。
var injectionPatterns = []*regexp.Regexp{
	// instruction override
	regexp.MustCompile(`(?i)\b(ignore|disregard|forget|skip|bypass)\b.{0,20}\b(previous|prior|above|earlier|preceding|all|your|the system|system)\b.{0,20}\b(instructions?|prompts?|rules|directions|guidelines|context)\b`),
	regexp.MustCompile(`(?i)\boverride\b.{0,20}\b(instructions?|system prompt|rules)\b`),
	regexp.MustCompile(`(?i)\bnew instructions?\s*:`),
	// role reassignment
	regexp.MustCompile(`(?i)\byou are (now|no longer)\b`),
	regexp.MustCompile(`(?i)\bfrom now on,? you\b`),
	regexp.MustCompile(`(?i)\bpretend (to be|you are|that you are)\b`),
	regexp.MustCompile(`(?i)\b(roleplay|role-play) as\b`),
	regexp.MustCompile(`(?i)\byour new (role|persona|instructions?)\b`),
	regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:`),
	// jailbreak markers
	regexp.MustCompile(`(?i)\bjailbreak`),
	regexp.MustCompile(`(?i)\bdo anything now\b`),
	regexp.MustCompile(`(?i)\b(developer|god) mode\b`),
	regexp.MustCompile(`(?i)\b(reveal|print|show|repeat)\b.{0,20}\b(system prompt|your instructions|hidden instructions)\b`),
	regexp.MustCompile(`(?i)<\|?(im_start|im_end|system)\|?>|\[/?INST\]`),
}

// LooksLikeInjection 报告消息是否命中任一提示注入规则。
func LooksLikeInjection(message string) bool {
	for _, re := range injectionPatterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// screenMessage 在调用模型前拦截疑似提示注入的消息。
func screenMessage(message string) error {
	if LooksLikeInjection(message) {
		return NewInputError("Your message contains content that cannot be processed. Please rephrase your question about the guidelines.")
	}
	return nil
}

// truncateChars 按字符截断，避免切断多字节字符。
func truncateChars(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// normalizeInput 去除首尾空白并截断。
func normalizeInput(s string, max int) string {
	return truncateChars(strings.TrimSpace(s), max)
}
