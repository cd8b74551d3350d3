// Package config はjobtrackerの設定を読み込む。
//
// .env ファイル、YAML設定ファイル、環境変数の順に値を重ね、
// 最後に検証を行う。
package config
