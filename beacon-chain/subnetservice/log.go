package subnetservice

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "subnetservice")
