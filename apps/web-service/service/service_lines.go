package service

import (
	"fmt"

	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/config"
	"cih-portal/pkg/motion"
	"cih-portal/pkg/theme"
)

// defaultServiceLines 未配置时使用的服务线目录
var defaultServiceLines = []config.ServiceLineConfig{
	{
		Title:       "Capacitación",
		Description: "Mejorar las competencias de los diferentes actores del territorio del Consejo Higuito para realizar de manera más adecuada su trabajo, de acuerdo con el marco legal e institucional de los gobiernos locales.",
		Theme:       "blue",
	},
	{
		Title:       "Asistencia técnica para el desarrollo de capacidades",
		Description: "Generar capacidades para la aplicación de técnicas y herramientas metodológicas de acuerdo con las necesidades, condiciones y situaciones específicas de cada municipio y dentro del marco de los Planes de Desarrollo Municipal.",
		Theme:       "green",
	},
	{
		Title:       "Acompañamiento en instrumentos de planificación y normativa",
		Description: "Facilitar la elaboración de instrumentos y normativas para el desarrollo de proceso de planificación a nivel territorial de los gobiernos locales.",
		Theme:       "purple",
	},
	{
		Title:       "Formulación de estudios",
		Description: "Brindar información técnica especializada para la identificación, prevención, control o mitigación de la problemática municipal, o para el seguimiento de los planes de intervención correspondiente.",
		Theme:       "orange",
	},
	{
		Title:       "Gestión de información territorial",
		Description: "Brindar información y conocimiento decisional para la planificación y evaluación de la gestión y resultados de los gobiernos locales, basada en la recolección, tratamiento y análisis de los datos disponibles en fuentes relevantes y competentes.",
		Theme:       "cyan",
	},
	{
		Title:       "Promoción, socialización y sensibilización",
		Description: "Mejorar la participación consciente de la población en consonancia con el gobierno local que contribuya a fortalecer la gobernabilidad y el tejido social e incrementar la calidad de vida de las comunidades.",
		Theme:       "pink",
	},
	{
		Title:       "Consultoría",
		Description: "Asesoría y acompañamiento especializado para gobiernos locales y socios en diagnóstico, diseño e implementación de proyectos, fortalecimiento institucional y mejora de procesos.",
		Theme:       "blue",
	},
}

// BuildServiceLines 校验主题并生成服务线；cfgs 为空时使用默认目录
func BuildServiceLines(cfgs []config.ServiceLineConfig) ([]model.ServiceLine, error) {
	if len(cfgs) == 0 {
		cfgs = defaultServiceLines
	}
	cues := motion.Sequence(motion.DefaultFadeIn(), motion.DefaultStagger(), len(cfgs))

	lines := make([]model.ServiceLine, 0, len(cfgs))
	for i, c := range cfgs {
		if c.Title == "" {
			return nil, fmt.Errorf("service line %d: title is required", i)
		}
		t, err := theme.Parse(c.Theme)
		if err != nil {
			return nil, fmt.Errorf("service line %q: %w", c.Title, err)
		}
		lines = append(lines, model.ServiceLine{
			Title:       c.Title,
			Description: c.Description,
			Theme:       t,
			Style:       t.Style(),
			Cue:         cues[i],
		})
	}
	return lines, nil
}
