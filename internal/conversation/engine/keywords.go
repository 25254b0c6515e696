package engine

import (
	"strconv"
	"strings"

	"cotizador_backend/platform/textnorm"
)

// message is the normalized view of an inbound text.
type message struct {
	raw    string
	folded string
	tokens []string
}

func newMessage(raw string) message {
	folded := textnorm.Fold(raw)
	return message{raw: raw, folded: folded, tokens: textnorm.Tokens(folded)}
}

// keywordSet matches single words as whole tokens and multi-word phrases as
// contiguous token runs. Entries are written already folded.
type keywordSet struct {
	words   map[string]struct{}
	phrases [][]string
}

func keywords(entries ...string) keywordSet {
	ks := keywordSet{words: make(map[string]struct{})}
	for _, e := range entries {
		parts := textnorm.Tokens(textnorm.Fold(e))
		switch len(parts) {
		case 0:
		case 1:
			ks.words[parts[0]] = struct{}{}
		default:
			ks.phrases = append(ks.phrases, parts)
		}
	}
	return ks
}

func (ks keywordSet) matches(m message) bool {
	for _, tok := range m.tokens {
		if _, ok := ks.words[tok]; ok {
			return true
		}
	}
	for _, phrase := range ks.phrases {
		if containsRun(m.tokens, phrase) {
			return true
		}
	}
	return false
}

func containsRun(tokens, run []string) bool {
	if len(run) == 0 || len(run) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(run) <= len(tokens); i++ {
		for j, w := range run {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// stemSet matches tokens that start with any stem, so "lapic" catches "lápices".
type stemSet []string

func (s stemSet) matches(m message) bool {
	for _, tok := range m.tokens {
		for _, stem := range s {
			if strings.HasPrefix(tok, stem) {
				return true
			}
		}
	}
	return false
}

const (
	minFallbackQuantity = 1
	maxFallbackQuantity = 1000
)

// firstQuantity returns the first all-digit token of the text when it lies in
// [minFallbackQuantity, maxFallbackQuantity]. Digits inside a word ("a4") do
// not count.
func firstQuantity(m message) (int, bool) {
	for _, tok := range m.tokens {
		if !isDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < minFallbackQuantity || n > maxFallbackQuantity {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

var (
	resetKeywords       = keywords("reiniciar", "restart", "empezar de nuevo", "borrar todo", "nueva sesion", "reset")
	statusQueryKeywords = keywords("cuantos", "cantidad", "llevo", "tengo", "lista", "resumen")
	affirmativeKeywords = keywords("si", "confirmar", "confirmo", "ok", "vale")
	modifyKeywords      = keywords("modificar", "cambiar")
)
