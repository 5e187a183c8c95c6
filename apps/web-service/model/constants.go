package model

// 分类
const (
	AllCategories   = "Todos"   // 不筛选分类
	DefaultCategory = "General" // 文章未设置分类时的显示名
	DefaultAuthor   = "CIH"     // 文章未设置作者时的显示名
)

// 视图默认值
const (
	DefaultRecentLimit  = 5 // 列表页"最近文章"数量
	DefaultRelatedLimit = 4 // 详情页侧边栏数量
)

// 面向用户的提示
const (
	MsgListFailed     = "Error al cargar los posts del blog"
	MsgPostNotFound   = "Post no encontrado"
	MsgPostFailed     = "Error al cargar el post"
	MsgCarouselAbsent = "Galería no encontrada"
	MsgInvalidIndex   = "Índice de imagen inválido"
	MsgInvalidRequest = "Solicitud inválida"
)

// 前端跳转
const (
	BlogListPath  = "/blog"
	BlogRetryPath = "/api/v1/blog/retry"
)

// CarouselSocketPath 图库的 websocket 地址
func CarouselSocketPath(name string) string {
	return "/api/v1/carousels/" + name + "/ws"
}
