package controllers

import (
	"net/http"

	"github.com/kwanzatukule/marketplace/pkg/ctx"
)

type HomeController struct{}

func NewHomeController() *HomeController { return &HomeController{} }

func (hc *HomeController) Index(c *ctx.Context) {
	c.Message(http.StatusOK, "Welcome to Kwanza Tukule API!")
}
