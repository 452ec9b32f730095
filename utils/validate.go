package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	youtubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]{11}`)
	naverTVURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?tv\.naver\.com/v/\d+`)
	imageURLPattern   = regexp.MustCompile(`(?i)^https?://.*\.(jpg|jpeg|png|gif|webp)(\?.*)?$`)
)

// IsValidVideoURL accepts YouTube watch/short links and Naver TV video links. Empty is allowed.
func IsValidVideoURL(url string) bool {
	if url == "" {
		return true
	}
	return youtubeURLPattern.MatchString(url) || naverTVURLPattern.MatchString(url)
}

// IsValidImageURL accepts http(s) URLs ending in a common image extension. Empty is allowed.
func IsValidImageURL(url string) bool {
	if url == "" {
		return true
	}
	return imageURLPattern.MatchString(url)
}

// RegisterValidators exposes the URL checks as `video_url` and `image_url` binding tags.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("video_url", func(fl validator.FieldLevel) bool {
		return IsValidVideoURL(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("image_url", func(fl validator.FieldLevel) bool {
		return IsValidImageURL(fl.Field().String())
	})
}
