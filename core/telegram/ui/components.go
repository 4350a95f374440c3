package ui

import tele "gopkg.in/telebot.v4"

// NewSimpleArticleResult creates an ArticleResult for inline queries. The
// description shows under the title in the result list; text is what gets
// sent when the result is picked.
func NewSimpleArticleResult(id, title, description, text string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
		Text:        text,
	}
	result.SetResultID(id)
	return result
}
