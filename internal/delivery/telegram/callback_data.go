package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionAnswer       = "ans"
	actionSubmit       = "sub"
	actionNav          = "nav"
	actionGoTo         = "go"
	actionCollection   = "col"
	actionErrorBook    = "errors"
	actionSave         = "save"
	actionSavePractice = "savepractice"
	actionNormal       = "normal"
	actionIgnore       = "ignore"
	actionBack         = "back"
)

// Navigation sub-actions.
const (
	navPrev = "prev"
	navNext = "next"
)

// Collection sub-actions.
const (
	collectionStart  = "start"
	collectionRename = "ren"
	collectionDelete = "del"
	collectionList   = "list"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

func buildAnswerCallback(label string) string {
	return callbackData{Action: actionAnswer, Params: []string{label}}.encode()
}

func buildSubmitCallback() string {
	return actionSubmit
}

func buildNavCallback(direction string) string {
	return callbackData{Action: actionNav, Params: []string{direction}}.encode()
}

func buildGoToCallback(index int) string {
	return callbackData{Action: actionGoTo, Params: []string{strconv.Itoa(index)}}.encode()
}

// buildCollectionCallback builds callback data for collection actions.
// Collection ids are short enough to fit the 64-byte callback limit.
func buildCollectionCallback(subAction string, id ...string) string {
	params := []string{subAction}
	params = append(params, id...)
	return callbackData{Action: actionCollection, Params: params}.encode()
}

func buildErrorBookCallback() string    { return actionErrorBook }
func buildSaveCallback() string         { return actionSave }
func buildSavePracticeCallback() string { return actionSavePractice }
func buildNormalCallback() string       { return actionNormal }
func buildIgnoreCallback() string       { return actionIgnore }
func buildBackCallback() string         { return actionBack }
