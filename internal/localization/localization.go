// Package localization хранит длинные тексты бота в ru.yaml
package localization

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed translations/ru.yaml
var textsYAML []byte

// Texts - плоский справочник "раздел.ключ" -> текст
type Texts struct {
	texts map[string]string
}

func NewTexts() (*Texts, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(textsYAML, &tree); err != nil {
		return nil, fmt.Errorf("parse texts: %w", err)
	}

	t := &Texts{texts: make(map[string]string)}
	t.flatten("", tree)
	return t, nil
}

func (t *Texts) flatten(prefix string, node map[string]interface{}) {
	for name, value := range node {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		switch v := value.(type) {
		case string:
			t.texts[key] = v
		case map[string]interface{}:
			t.flatten(key, v)
		}
	}
}

// Text возвращает текст по ключу с подставленными {{name}}.
// Неизвестный ключ возвращается как есть, чтобы пропуск был виден в чате.
func (t *Texts) Text(key string, params map[string]interface{}) string {
	text, ok := t.texts[key]
	if !ok {
		return key
	}

	for name, value := range params {
		text = strings.ReplaceAll(text, "{{"+name+"}}", fmt.Sprint(value))
	}
	return text
}
