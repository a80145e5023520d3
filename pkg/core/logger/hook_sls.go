package logger

import (
	"fmt"
	"time"

	"stationery/pkg/core/config"

	sls "github.com/aliyun/aliyun-log-go-sdk"
	"github.com/gogo/protobuf/proto"
	"github.com/sirupsen/logrus"
)

const defaultLogstore = "prod"

// SlsHook 每条日志同步 PutLogs 一次
type SlsHook struct {
	levels   []logrus.Level
	client   sls.ClientInterface
	appName  string
	host     string
	project  string
	logstore string
}

func NewSlsHook(appName, host string, config config.LogConfig) *SlsHook {
	provider := sls.NewStaticCredentialsProvider(config.AccessKey, config.AccessSecret, "")
	client := sls.CreateNormalInterfaceV2(config.Endpoint, provider)

	logstore := config.Logstore
	if logstore == "" {
		logstore = defaultLogstore
	}

	return &SlsHook{
		// debug 及以下只留在本地
		levels:   logrus.AllLevels[:logrus.InfoLevel+1],
		client:   client,
		appName:  appName,
		host:     host,
		project:  config.Project,
		logstore: logstore,
	}
}

func (s *SlsHook) Fire(entry *logrus.Entry) error {
	return s.client.PutLogs(s.project, s.logstore, buildLogGroup(s.appName, s.host, entry))
}

func (s *SlsHook) Levels() []logrus.Level {
	return s.levels
}

func buildLogGroup(appName, host string, entry *logrus.Entry) *sls.LogGroup {
	content := make([]*sls.LogContent, 0, len(entry.Data)+2)
	for k, v := range entry.Data {
		content = append(content, &sls.LogContent{
			Key:   proto.String(k),
			Value: proto.String(fmt.Sprintf("%v", v)),
		})
	}

	content = append(content,
		&sls.LogContent{Key: proto.String("level"), Value: proto.String(entry.Level.String())},
		&sls.LogContent{Key: proto.String("message"), Value: proto.String(entry.Message)},
	)

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return &sls.LogGroup{
		Topic:  proto.String(appName),
		Source: proto.String(host),
		Logs: []*sls.Log{{
			Time:     proto.Uint32(uint32(ts.Unix())),
			Contents: content,
		}},
	}
}
