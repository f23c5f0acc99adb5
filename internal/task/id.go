package task

import (
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// idPrefix はタスクIDの接頭辞。
	idPrefix = "TASK-"
	// idAlphabet はタスクIDのランダム部分に使う文字（base36の大文字）。
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// idRandomLength はタスクIDのランダム部分の長さ。
	idRandomLength = 7
)

// IDGenerator はタスクIDを採番する。
// 形式は TASK-<UNIXミリ秒>-<大文字英数字7文字>。既存IDとの重複検査は行わない。
type IDGenerator struct {
	now    func() time.Time
	random func() string
}

// NewIDGenerator は新しいIDGeneratorを生成する。
func NewIDGenerator() (*IDGenerator, error) {
	random, err := nanoid.CustomASCII(idAlphabet, idRandomLength)
	if err != nil {
		return nil, fmt.Errorf("ID生成器の初期化に失敗: %w", err)
	}
	return &IDGenerator{now: time.Now, random: random}, nil
}

// New は新しいタスクIDを返す。
func (g *IDGenerator) New() string {
	return fmt.Sprintf("%s%d-%s", idPrefix, g.now().UnixMilli(), g.random())
}
