package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = logrus.New()

// InitLogger menyiapkan logger gateway: JSON ke berkas berotasi,
// plus salinan ke stdout di luar mode production.
func InitLogger() {
	if _, err := os.Stat("logs"); os.IsNotExist(err) {
		os.Mkdir("logs", 0755)
	}

	fileOut := &lumberjack.Logger{
		Filename:   "logs/gateway.log",
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // hari
		Compress:   true,
	}

	// Di production cukup ke berkas; selain itu duplikasi ke stdout
	// supaya log terlihat saat menjalankan gateway dari terminal.
	if viper.GetString("ENVIRONMENT") == "production" {
		Log.SetOutput(fileOut)
	} else {
		Log.SetOutput(io.MultiWriter(os.Stdout, fileOut))
	}

	switch viper.GetString("LOG_LEVEL") {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		Log.SetLevel(logrus.InfoLevel)
	}

	Log.SetFormatter(&logrus.JSONFormatter{})

	Log.WithField("service", "gateway").Info("Logger telah diinisialisasi dengan sukses!")
}
