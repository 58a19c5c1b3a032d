package summarizer

import (
	"fmt"
	"strings"

	"blog-agent/internal/domain/entity"
)

// truncateRunes shortens s to at most max runes without splitting a rune.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// buildDigestPrompt renders recent posts into a curator prompt. Posts beyond
// maxPosts are omitted to keep the request within token limits.
func buildDigestPrompt(posts []*entity.BlogPost, lookbackDays, maxPosts int) string {
	if len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}

	var lines []string
	for _, p := range posts {
		line := fmt.Sprintf("- %q by %s (%s)", p.Title, p.Author, p.SourceName)
		if p.Summary != "" {
			line += ": " + truncateRunes(p.Summary, 200)
		}
		if p.Comments != nil && *p.Comments > 0 {
			line += fmt.Sprintf(" [%d comments]", *p.Comments)
		}
		lines = append(lines, line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a knowledgeable blog curator. Here are the blog posts published in the last %d days from blogs the user follows:\n\n", lookbackDays)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString("Write a concise, engaging digest (3-5 short paragraphs) that:\n")
	b.WriteString("1. Highlights the most interesting or important posts\n")
	b.WriteString("2. Groups related themes across different blogs\n")
	b.WriteString("3. Notes any debates or contrasting perspectives\n")
	b.WriteString("4. Suggests which posts are must-reads and why\n\n")
	b.WriteString("Write in a warm, intelligent tone. Be specific about the content, don't just list titles.")
	return b.String()
}

// describeSources formats sources as "- name (tags: a, b)" lines.
func describeSources(sources []entity.FeedSource) string {
	var lines []string
	for _, s := range sources {
		lines = append(lines, fmt.Sprintf("- %s (tags: %s)", s.Name, strings.Join(s.Tags, ", ")))
	}
	return strings.Join(lines, "\n")
}

// buildReasonsPrompt renders the recommendation-explanation prompt. The model
// is asked to answer one "NAME: reason" line per candidate so parseReasons can
// match lines back to candidates.
func buildReasonsPrompt(candidates, liked, existing []entity.FeedSource, maxCandidates int) string {
	likedDesc := "No blogs liked yet."
	if len(liked) > 0 {
		likedDesc = describeSources(liked)
	}
	if len(existing) > 10 {
		existing = existing[:10]
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	var candidateLines []string
	for _, s := range candidates {
		candidateLines = append(candidateLines,
			fmt.Sprintf("- %s (%s) [tags: %s]", s.Name, s.URL, strings.Join(s.Tags, ", ")))
	}

	var b strings.Builder
	b.WriteString("You are a blog recommendation engine. The user currently follows these blogs:\n")
	b.WriteString(describeSources(existing))
	b.WriteString("\n\nThey've liked these suggested blogs:\n")
	b.WriteString(likedDesc)
	b.WriteString("\n\nFor each blog below, write a one-sentence reason why this user would enjoy it. ")
	b.WriteString("Be specific: reference the overlap with their interests and what makes this blog unique.\n\n")
	b.WriteString("Blogs to explain:\n")
	b.WriteString(strings.Join(candidateLines, "\n"))
	b.WriteString("\n\nRespond with exactly one line per blog in the format:\nBLOG_NAME: reason\n\n")
	b.WriteString("Keep each reason to 1-2 sentences, max 150 characters.")
	return b.String()
}

// parseReasons maps "NAME: reason" response lines back to candidate URLs.
// Lines are matched by case-insensitive name containment in either direction,
// so a model answering "Astral Codex Ten (ACX): ..." still matches the
// candidate named "Astral Codex Ten". Unmatched lines are dropped.
func parseReasons(text string, candidates []entity.FeedSource) map[string]string {
	reasons := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		name, reason, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		reason = strings.TrimSpace(reason)
		if name == "" || reason == "" {
			continue
		}
		for _, s := range candidates {
			candidate := strings.ToLower(s.Name)
			if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
				reasons[s.URL] = reason
				break
			}
		}
	}
	return reasons
}
