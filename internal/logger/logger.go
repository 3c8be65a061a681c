package logger

import (
	"go.uber.org/zap"
)

// 本番はJSON、それ以外は開発用のコンソール出力
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
