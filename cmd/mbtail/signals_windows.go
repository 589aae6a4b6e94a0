package main

import (
	"context"

	"github.com/sirupsen/logrus"

	mb "github.com/sigmavirus24/gomessagebus"
)

func watchVisibility(context.Context, *mb.ToggleVisibility, logrus.FieldLogger) {}
