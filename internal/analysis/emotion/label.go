package emotion

import (
	"strconv"
	"strings"
)

// Label 表示情绪识别链路对外暴露的情绪标签。
type Label string

const (
	Sadness  Label = "Sadness"
	Joy      Label = "Joy"
	Love     Label = "Love"
	Anger    Label = "Anger"
	Fear     Label = "Fear"
	Surprise Label = "Surprise"

	// Neutral 表示没有明显情绪信号，不会被写入会话上下文。
	Neutral Label = "Neutral"
	// Unknown 表示情绪识别不可用或者类别无法映射。
	Unknown Label = "Unknown"
)

// None 表示会话上下文中尚未记录情绪。
const None Label = ""

// classLabels 对应训练数据集 (nelgiriyewithana/emotions) 的整数类别。
var classLabels = map[int]Label{
	0: Sadness,
	1: Joy,
	2: Love,
	3: Anger,
	4: Fear,
	5: Surprise,
}

// Labels 返回全部训练类别对应的情绪标签，顺序与类别编号一致。
func Labels() []Label {
	return []Label{Sadness, Joy, Love, Anger, Fear, Surprise}
}

// Known 判断标签是否属于情绪集合或两个哨兵值。
func (l Label) Known() bool {
	switch l {
	case Sadness, Joy, Love, Anger, Fear, Surprise, Neutral, Unknown:
		return true
	default:
		return false
	}
}

// Negative 判断标签是否是需要跨轮次延续的负面情绪。
func (l Label) Negative() bool {
	switch l {
	case Anger, Sadness, Fear:
		return true
	default:
		return false
	}
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel 解析外部传入的标签字符串，大小写不敏感。
func ParseLabel(raw string) (Label, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return None, true
	case "sadness", "sad":
		return Sadness, true
	case "joy", "happy":
		return Joy, true
	case "love":
		return Love, true
	case "anger", "angry":
		return Anger, true
	case "fear":
		return Fear, true
	case "surprise":
		return Surprise, true
	case "neutral":
		return Neutral, true
	case "unknown":
		return Unknown, true
	default:
		return Unknown, false
	}
}

// LabelForClass 将模型类别标识映射为情绪标签，无法识别时返回 Unknown。
func LabelForClass(class ClassID) Label {
	if id, err := strconv.Atoi(string(class)); err == nil {
		if label, ok := classLabels[id]; ok {
			return label
		}
		return Unknown
	}

	label, ok := ParseLabel(string(class))
	if !ok || label == None || label == Neutral {
		return Unknown
	}
	return label
}
