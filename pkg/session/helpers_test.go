package session_test

import (
	"github.com/aretw0/hearth/pkg/ports"
)

func portsNavigator(f ports.NavigatorFunc) ports.Navigator { return f }
