package editor

import "strings"

// Operation 图片编辑操作，未知操作为 OpNone
type Operation int

const (
	OpNone Operation = iota
	OpFlip
	OpMirror
	OpBlur
	OpGrayscale
	OpAutoContrast
	OpInvert
	OpSepia
)

var operationNames = map[Operation]string{
	OpNone:         "none",
	OpFlip:         "flip",
	OpMirror:       "mirror",
	OpBlur:         "blur",
	OpGrayscale:    "grayscale",
	OpAutoContrast: "auto-contrast",
	OpInvert:       "invert",
	OpSepia:        "sepia",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames))
	for op, name := range operationNames {
		if op != OpNone {
			m[name] = op
		}
	}
	return m
}()

// ParseOperation 按名称解析编辑操作，无法识别的名称返回 OpNone
func ParseOperation(name string) Operation {
	if op, ok := operationsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return op
	}
	return OpNone
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return operationNames[OpNone]
}

// Operations 返回全部有效操作
func Operations() []Operation {
	return []Operation{OpFlip, OpMirror, OpBlur, OpGrayscale, OpAutoContrast, OpInvert, OpSepia}
}
